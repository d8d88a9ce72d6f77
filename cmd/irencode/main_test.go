package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
)

func runCmd(args ...string) (code int, stdout, stderr string) {
	var out, errOut bytes.Buffer
	code = run(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestTableOutput(t *testing.T) {
	c := qt.New(t)

	code, out, _ := runCmd("-protocol", "nec", "-address", "0x04", "-command", "8")
	c.Assert(code, qt.Equals, 0)
	c.Assert(out, qt.Contains, "mark")
	c.Assert(out, qt.Contains, "9000")
	c.Assert(out, qt.Contains, "NEC address=0x4 command=0x8 carrier=38000Hz duty=33% symbols=34")
}

func TestRawOutput(t *testing.T) {
	c := qt.New(t)

	code, out, _ := runCmd("-protocol", "NEC", "-address", "4", "-command", "8", "-format", "raw")
	c.Assert(code, qt.Equals, 0)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	// 34 marks, the final stop mark has no space after it
	c.Assert(lines, qt.HasLen, 67)
	c.Assert(lines[0], qt.Equals, "+9000")
	c.Assert(lines[1], qt.Equals, "-4500")
	c.Assert(lines[len(lines)-1], qt.Equals, "+560")
}

func TestJSONOutput(t *testing.T) {
	c := qt.New(t)

	code, out, _ := runCmd("-protocol", "rc5", "-address", "5", "-command", "0x35", "-toggle", "-format", "json")
	c.Assert(code, qt.Equals, 0)

	var got struct {
		Protocol  string `json:"protocol"`
		Address   uint32 `json:"address"`
		Command   uint32 `json:"command"`
		CarrierHz uint32 `json:"carrier_hz"`
		AirtimeUS int64  `json:"airtime_us"`
		Symbols   []struct {
			Mark  uint32 `json:"mark"`
			Space uint32 `json:"space"`
		} `json:"symbols"`
	}
	c.Assert(json.Unmarshal([]byte(out), &got), qt.IsNil)
	c.Assert(got.Protocol, qt.Equals, "RC5")
	c.Assert(got.Address, qt.Equals, uint32(5))
	c.Assert(got.Command, qt.Equals, uint32(0x35))
	c.Assert(got.CarrierHz, qt.Equals, uint32(36000))
	c.Assert(len(got.Symbols) > 0, qt.IsTrue)
	c.Assert(got.AirtimeUS > 0, qt.IsTrue)
}

func TestList(t *testing.T) {
	c := qt.New(t)

	code, out, _ := runCmd("-list")
	c.Assert(code, qt.Equals, 0)
	c.Assert(out, qt.Contains, "NEC_EXT")
	c.Assert(out, qt.Contains, "COOLIX")
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
		msg  string
	}{
		{"unknown protocol", []string{"-protocol", "rcmm"}, 2, "unknown protocol"},
		{"bad address", []string{"-address", "zz"}, 2, "not an unsigned 32-bit number"},
		{"bad policy", []string{"-policy", "loose"}, 2, "validation policy"},
		{"bad format", []string{"-format", "csv"}, 2, "format"},
		{"out of range", []string{"-address", "0x1FF"}, 1, "exceeds 8 bits"},
		{"bad flag", []string{"-nope"}, 2, "flag provided but not defined"},
	}

	c := qt.New(t)
	for _, tt := range tests {
		c.Run(tt.name, func(c *qt.C) {
			code, out, errOut := runCmd(tt.args...)
			c.Assert(code, qt.Equals, tt.code)
			c.Assert(out, qt.Equals, "")
			c.Assert(errOut, qt.Contains, tt.msg)
		})
	}
}

func TestMaskPolicy(t *testing.T) {
	c := qt.New(t)

	code, _, _ := runCmd("-address", "0x1FF", "-policy", "mask")
	c.Assert(code, qt.Equals, 0)
}
