// Copyright ©2024 The tilegemm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command sgemm times and checks matrix multiplication on an accelerator.
//
// Usage:
//
//	sgemm run -m 1024 -n 1024 -k 1024 --iterations 10 --validate
//	sgemm devices
//	sgemm version
package main

import (
	goflag "flag"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"k8s.io/klog/v2"

	_ "github.com/LynnColeArt/tilegemm/accel/opencl"
)

func main() {
	klogFlags := goflag.NewFlagSet("klog", goflag.ExitOnError)
	klog.InitFlags(klogFlags)
	pflag.CommandLine.AddGoFlagSet(klogFlags)
	defer klog.Flush()

	root := &cobra.Command{
		Use:           "sgemm",
		Short:         "Tiled single-precision matrix multiply",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().AddFlagSet(pflag.CommandLine)
	root.AddCommand(newRunCommand(), newDevicesCommand(), newVersionCommand())

	// Failures, including the compiler log of a kernel that does not
	// build, end the process here after the command has cleaned up.
	if err := root.Execute(); err != nil {
		klog.Exitf("%v", err)
	}
}
