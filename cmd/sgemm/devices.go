package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/LynnColeArt/tilegemm"
	"github.com/LynnColeArt/tilegemm/accel"
)

type deviceRow struct {
	runtime, platform, device string
	typ                       accel.DeviceType
	maxGroup                  int
	memBytes                  uint64
	units, vector             int // 0 when the device does not report them
}

// listDevices walks every registered runtime. A runtime that fails to
// enumerate is reported and skipped.
func listDevices() ([]deviceRow, map[string]error) {
	var rows []deviceRow
	failed := map[string]error{}
	for _, name := range accel.Runtimes() {
		rt, err := accel.Open(name)
		if err != nil {
			failed[name] = err
			continue
		}
		platforms, err := rt.Platforms()
		if err != nil {
			failed[name] = err
			continue
		}
		for _, p := range platforms {
			devices, err := p.Devices(accel.DeviceTypeAll)
			if err != nil {
				if accel.StatusOf(err) != accel.StatusDeviceNotFound {
					failed[name] = err
				}
				continue
			}
			rows = append(rows, lo.Map(devices, func(d accel.Device, _ int) deviceRow {
				row := deviceRow{
					runtime:  name,
					platform: p.Name(),
					device:   d.Name(),
					typ:      d.Type(),
					maxGroup: d.MaxWorkGroupSize(),
					memBytes: d.GlobalMemSize(),
				}
				if l, ok := d.(accel.DeviceLimits); ok {
					row.units, row.vector = l.ComputeUnits(), l.PreferredVectorWidth()
				}
				return row
			})...)
		}
	}
	return rows, failed
}

func newDevicesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List devices of every registered runtime",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rows, failed := listDevices()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "RUNTIME\tPLATFORM\tDEVICE\tTYPE\tUNITS\tVECTOR\tMAX GROUP\tMEMORY")
			for _, r := range rows {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%d\t%d MiB\n",
					r.runtime, r.platform, r.device, r.typ, orDash(r.units), orDash(r.vector),
					r.maxGroup, r.memBytes>>20)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			for _, name := range lo.Keys(failed) {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", name, failed[name])
			}
			if len(rows) == 0 {
				return fmt.Errorf("no devices found (runtimes: %s)", strings.Join(accel.Runtimes(), ", "))
			}
			return nil
		},
	}
}

func orDash(v int) string {
	if v == 0 {
		return "-"
	}
	return strconv.Itoa(v)
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the module version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			version, sum := tilegemm.Version()
			if version == "" {
				version = "(devel)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "tilegemm %s %s\n", version, sum)
		},
	}
}
