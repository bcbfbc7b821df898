package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "cgfit version "+version+"\n", out)
}

func TestFitLinear(t *testing.T) {
	data := writeFile(t, "line.csv", "x,y\n-1,-1.5\n0,0.5\n1,2.5\n2,4.5\n3,6.5\n")

	out, err := execute(t, "fit", "--data", data, "--method", "fr", "--search", "secant", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "linear fit")
	assert.Contains(t, out, "0.500000")
	assert.Contains(t, out, "2.000000")
	assert.Contains(t, out, "CONVERGENCE")
}

func TestFitNumericGradient(t *testing.T) {
	data := writeFile(t, "line.csv", "x,y\n-1,-1.5\n0,0.5\n1,2.5\n2,4.5\n3,6.5\n")

	for _, gradient := range []string{"forward", "central"} {
		out, err := execute(t, "fit", "--data", data, "--gradient", gradient,
			"--method", "FR", "--search", "MT", "--starts", "2", "--log-level", "error")
		require.NoError(t, err, gradient)
		assert.Contains(t, out, "linear fit", gradient)
		assert.InDelta(t, 0.5, coefficient(t, out, 0), 1e-4, gradient)
		assert.InDelta(t, 2, coefficient(t, out, 1), 1e-4, gradient)
	}
}

// coefficient reads x[i] from a rendered result.
func coefficient(t *testing.T, out string, i int) float64 {
	t.Helper()
	m := regexp.MustCompile(fmt.Sprintf(`x\[%d\]\s+(\S+)`, i)).FindStringSubmatch(out)
	require.Len(t, m, 2, out)
	v, err := strconv.ParseFloat(m[1], 64)
	require.NoError(t, err)
	return v
}

func TestFitMultiStart(t *testing.T) {
	data := writeFile(t, "line.csv", "1,0,3\n0,1,-1\n1,1,2\n2,1,5\n0,0,0\n")
	cfg := writeFile(t, "cg.yaml", "method: pr\nsearch: secant\nstop: {max_iterations: 2000}\n")

	out, err := execute(t, "fit", "--data", data, "--config", cfg, "--starts", "4", "--parallel", "2", "--log-level", "error")
	require.NoError(t, err)
	// y = 3x₁ - x₂
	assert.Contains(t, out, "3.000000")
	assert.Contains(t, out, "-1.000000")
}

func TestRosenbrock(t *testing.T) {
	out, err := execute(t, "rosenbrock", "--x0", "-1,1", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "rosenbrock")
	assert.Contains(t, out, "1.000000")

	// component names are matched case-insensitively like in the config file
	out, err = execute(t, "rosenbrock", "--method", "HZ", "--search", " Hz ", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "CONVERGENCE")
}

func TestErrors(t *testing.T) {
	data := writeFile(t, "line.csv", "0,1\n1,2\n")
	badConfig := writeFile(t, "bad.yaml", "method: sgd\n")

	cases := map[string][]string{
		"missing data":    {"fit"},
		"unknown model":   {"fit", "--data", data, "--model", "cubic"},
		"no such file":    {"fit", "--data", filepath.Join(t.TempDir(), "none.csv")},
		"bad starts":      {"fit", "--data", data, "--starts", "0"},
		"bad gradient":    {"fit", "--data", data, "--gradient", "complex"},
		"bad search":      {"rosenbrock", "--search", "armijo"},
		"bad config":      {"fit", "--data", data, "--config", badConfig},
		"bad override":    {"rosenbrock", "--tol", "2"},
		"bad x0":          {"rosenbrock", "--x0", "1,2,3"},
		"exponential dim": {"fit", "--data", writeFile(t, "wide.csv", "1,2,3\n"), "--model", "exponential"},
	}
	for name, args := range cases {
		_, err := execute(t, append(args, "--log-level", "error")...)
		assert.Error(t, err, name)
	}
}
