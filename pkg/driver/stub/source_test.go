//go:build !tinygo && !baremetal

package stub

import (
	"go/ast"
	"go/build/constraint"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// The pwm driver only builds under TinyGo, so its source is checked here.

func TestPWMDriverBuildsForRP2040Only(t *testing.T) {
	src, err := os.ReadFile(filepath.Join("..", "pwm", "pwm_driver.go"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	var expr constraint.Expr
	for _, line := range strings.Split(string(src), "\n") {
		if constraint.IsGoBuild(line) {
			if expr, err = constraint.Parse(line); err != nil {
				t.Fatalf("Parse %q: %v", line, err)
			}
			break
		}
	}
	if expr == nil {
		t.Fatal("pwm_driver.go has no build constraint")
	}

	tests := []struct {
		name string
		tags []string
		want bool
	}{
		{"rp2040", []string{"tinygo", "rp2040"}, true},
		{"other tinygo target", []string{"tinygo", "nrf52840"}, false},
		{"host", []string{"linux"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := expr.Eval(func(tag string) bool {
				for _, s := range tt.tags {
					if s == tag {
						return true
					}
				}
				return false
			})
			if got != tt.want {
				t.Errorf("constraint %q with %v = %v, want %v", expr, tt.tags, got, tt.want)
			}
		})
	}
}

func TestDriverMethodsDocumented(t *testing.T) {
	for _, dir := range []string{".", filepath.Join("..", "pwm")} {
		files, err := filepath.Glob(filepath.Join(dir, "*.go"))
		if err != nil {
			t.Fatalf("Glob: %v", err)
		}
		for _, path := range files {
			if strings.HasSuffix(path, "_test.go") {
				continue
			}
			f, err := parser.ParseFile(token.NewFileSet(), path, nil, parser.ParseComments)
			if err != nil {
				t.Fatalf("ParseFile %s: %v", path, err)
			}
			for _, decl := range f.Decls {
				fn, ok := decl.(*ast.FuncDecl)
				if !ok || !fn.Name.IsExported() {
					continue
				}
				if fn.Doc == nil || strings.TrimSpace(fn.Doc.Text()) == "" {
					t.Errorf("%s: %s has no doc comment", path, fn.Name.Name)
				}
			}
		}
	}
}
