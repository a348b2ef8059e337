package host

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/LynnColeArt/tilegemm/accel"
)

// Program is kernel source bound to the host device. Building it checks the
// source's bracket structure, finds its __kernel declarations, and matches
// each against a registered host implementation with the same parameter
// kinds.
type Program struct {
	ctx    *Context
	source string

	mu       sync.Mutex
	built    bool
	log      string
	decls    map[string]*kernelDef
	released bool
}

var kernelDecl = regexp.MustCompile(`(?:__kernel|\bkernel)\s+void\s+([A-Za-z_]\w*)\s*\(([^)]*)\)`)

// Build compiles the program. Failures set the build log and report
// StatusBuildProgramFailure.
func (p *Program) Build(options string) error {
	const op = "clBuildProgram"
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return accel.Errorf(op, accel.StatusInvalidProgram, "program released")
	}
	for _, opt := range strings.Fields(options) {
		if !strings.HasPrefix(opt, "-") {
			return accel.Errorf(op, accel.StatusInvalidBuildOptions, "unrecognized option %q", opt)
		}
	}

	decls, diags := compile(p.source)
	p.log = strings.Join(diags, "\n")
	if len(diags) > 0 {
		p.built = false
		return accel.Errorf(op, accel.StatusBuildProgramFailure, "%d error(s)", len(diags))
	}
	p.decls = decls
	p.built = true
	return nil
}

// BuildLog returns the diagnostics of the last Build.
func (p *Program) BuildLog() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.log
}

// NewKernel returns the entry point name of a built program.
func (p *Program) NewKernel(name string) (accel.Kernel, error) {
	const op = "clCreateKernel"
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return nil, accel.Errorf(op, accel.StatusInvalidProgram, "program released")
	}
	if !p.built {
		return nil, accel.Errorf(op, accel.StatusInvalidProgramExecutable, "program not built")
	}
	def, ok := p.decls[name]
	if !ok {
		return nil, accel.Errorf(op, accel.StatusInvalidKernelName, "no kernel %q in program", name)
	}
	return &Kernel{
		def:  def,
		args: make([]any, len(def.params)),
		set:  make([]bool, len(def.params)),
	}, nil
}

func (p *Program) Release() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return accel.Errorf("clReleaseProgram", accel.StatusInvalidProgram, "program already released")
	}
	p.released = true
	return nil
}

// compile returns the kernels src declares, or compiler-style diagnostics.
func compile(src string) (map[string]*kernelDef, []string) {
	code := stripComments(src)
	var diags []string
	diags = append(diags, checkBrackets(code)...)
	if len(diags) > 0 {
		return nil, diags
	}

	decls := make(map[string]*kernelDef)
	for _, m := range kernelDecl.FindAllStringSubmatchIndex(code, -1) {
		name := code[m[2]:m[3]]
		line := 1 + strings.Count(code[:m[0]], "\n")
		params := parseParams(code[m[4]:m[5]])

		def, ok := lookupKernel(name)
		if !ok {
			diags = append(diags, fmt.Sprintf("<source>:%d: error: kernel '%s' has no host implementation", line, name))
			continue
		}
		if len(params) != len(def.params) {
			diags = append(diags, fmt.Sprintf("<source>:%d: error: kernel '%s' declares %d parameters, host implementation takes %d",
				line, name, len(params), len(def.params)))
			continue
		}
		for i, kind := range params {
			if kind != def.params[i] {
				diags = append(diags, fmt.Sprintf("<source>:%d: error: parameter %d of '%s' is %s, host implementation takes %s",
					line, i, name, kind, def.params[i]))
			}
		}
		if _, dup := decls[name]; dup {
			diags = append(diags, fmt.Sprintf("<source>:%d: error: redefinition of '%s'", line, name))
		}
		decls[name] = def
	}
	if len(diags) > 0 {
		return nil, diags
	}
	return decls, nil
}

// parseParams classifies each parameter as a pointer (buffer) or a scalar.
func parseParams(list string) []ArgKind {
	list = strings.TrimSpace(list)
	if list == "" || list == "void" {
		return nil
	}
	var kinds []ArgKind
	for _, p := range strings.Split(list, ",") {
		if strings.Contains(p, "*") {
			kinds = append(kinds, ArgBuffer)
		} else {
			kinds = append(kinds, ArgInt32)
		}
	}
	return kinds
}

// stripComments blanks out comments, keeping newlines so line numbers hold.
func stripComments(src string) string {
	var b strings.Builder
	b.Grow(len(src))
	for i := 0; i < len(src); i++ {
		switch {
		case strings.HasPrefix(src[i:], "//"):
			for i < len(src) && src[i] != '\n' {
				b.WriteByte(' ')
				i++
			}
			if i < len(src) {
				b.WriteByte('\n')
			}
		case strings.HasPrefix(src[i:], "/*"):
			end := strings.Index(src[i+2:], "*/")
			stop := len(src)
			if end >= 0 {
				stop = i + 2 + end + 2
			}
			for ; i < stop; i++ {
				if src[i] == '\n' {
					b.WriteByte('\n')
				} else {
					b.WriteByte(' ')
				}
			}
			i--
		default:
			b.WriteByte(src[i])
		}
	}
	return b.String()
}

// checkBrackets reports unbalanced (), [] and {}.
func checkBrackets(code string) []string {
	type open struct {
		ch   byte
		line int
	}
	pairs := map[byte]byte{')': '(', ']': '[', '}': '{'}
	var stack []open
	line := 1
	for i := 0; i < len(code); i++ {
		c := code[i]
		switch c {
		case '\n':
			line++
		case '(', '[', '{':
			stack = append(stack, open{c, line})
		case ')', ']', '}':
			if len(stack) == 0 || stack[len(stack)-1].ch != pairs[c] {
				return []string{fmt.Sprintf("<source>:%d: error: unexpected '%c'", line, c)}
			}
			stack = stack[:len(stack)-1]
		}
	}
	if len(stack) > 0 {
		top := stack[len(stack)-1]
		return []string{fmt.Sprintf("<source>:%d: error: '%c' is never closed", top.line, top.ch)}
	}
	return nil
}
