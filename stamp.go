package kati

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
)

// Stamp is the decoded form of the binary regeneration stamp file, per
// spec.md §6: a little-endian sequence of length-prefixed records written
// after a successful Ninja-mode run and replayed on the next invocation to
// decide whether the build graph needs to be regenerated.
type Stamp struct {
	GenTime        float64
	WatchedFiles   []string
	UndefinedEnv   []string
	EnvSnapshot    []EnvPair
	Globs          []GlobRecord
	Commands       []CommandResult
	OrigArgs       string
}

type EnvPair struct {
	Name, Value string
}

type GlobRecord struct {
	Pattern string
	Matches []string
}

// WriteStamp serializes s to w in the exact record order spec.md §6
// describes.
func WriteStamp(w io.Writer, s *Stamp) error {
	bw := bufio.NewWriter(w)
	if err := writeF64(bw, s.GenTime); err != nil {
		return err
	}
	if err := writeStringList(bw, s.WatchedFiles); err != nil {
		return err
	}
	if err := writeStringList(bw, s.UndefinedEnv); err != nil {
		return err
	}
	if err := writeI32(bw, int32(len(s.EnvSnapshot))); err != nil {
		return err
	}
	for _, p := range s.EnvSnapshot {
		if err := writeString(bw, p.Name); err != nil {
			return err
		}
		if err := writeString(bw, p.Value); err != nil {
			return err
		}
	}
	if err := writeI32(bw, int32(len(s.Globs))); err != nil {
		return err
	}
	for _, g := range s.Globs {
		if err := writeString(bw, g.Pattern); err != nil {
			return err
		}
		if err := writeStringList(bw, g.Matches); err != nil {
			return err
		}
	}
	if err := writeI32(bw, int32(len(s.Commands))); err != nil {
		return err
	}
	for _, c := range s.Commands {
		if err := writeCommandRecord(bw, c); err != nil {
			return err
		}
	}
	if err := writeString(bw, s.OrigArgs); err != nil {
		return err
	}
	return bw.Flush()
}

// ReadStamp deserializes a Stamp written by WriteStamp.
func ReadStamp(r io.Reader) (*Stamp, error) {
	br := bufio.NewReader(r)
	s := &Stamp{}
	var err error
	if s.GenTime, err = readF64(br); err != nil {
		return nil, err
	}
	if s.WatchedFiles, err = readStringList(br); err != nil {
		return nil, err
	}
	if s.UndefinedEnv, err = readStringList(br); err != nil {
		return nil, err
	}
	n, err := readI32(br)
	if err != nil {
		return nil, err
	}
	s.EnvSnapshot = make([]EnvPair, n)
	for i := range s.EnvSnapshot {
		name, err := readString(br)
		if err != nil {
			return nil, err
		}
		value, err := readString(br)
		if err != nil {
			return nil, err
		}
		s.EnvSnapshot[i] = EnvPair{Name: name, Value: value}
	}
	n, err = readI32(br)
	if err != nil {
		return nil, err
	}
	s.Globs = make([]GlobRecord, n)
	for i := range s.Globs {
		pat, err := readString(br)
		if err != nil {
			return nil, err
		}
		matches, err := readStringList(br)
		if err != nil {
			return nil, err
		}
		s.Globs[i] = GlobRecord{Pattern: pat, Matches: matches}
	}
	n, err = readI32(br)
	if err != nil {
		return nil, err
	}
	s.Commands = make([]CommandResult, n)
	for i := range s.Commands {
		c, err := readCommandRecord(br)
		if err != nil {
			return nil, err
		}
		s.Commands[i] = c
	}
	if s.OrigArgs, err = readString(br); err != nil {
		return nil, err
	}
	return s, nil
}

func writeCommandRecord(w io.Writer, c CommandResult) error {
	if err := writeI32(w, int32(c.Op)); err != nil {
		return err
	}
	for _, s := range []string{c.Shell, c.ShellFlag, c.Cmd, c.Result, c.Source} {
		if err := writeString(w, s); err != nil {
			return err
		}
	}
	if err := writeI32(w, int32(c.Line)); err != nil {
		return err
	}
	if c.Op == CmdFind {
		if err := writeStringList(w, c.MissingDirs); err != nil {
			return err
		}
		if err := writeStringList(w, c.Files); err != nil {
			return err
		}
		if err := writeStringList(w, c.ReadDirs); err != nil {
			return err
		}
	}
	return nil
}

func readCommandRecord(r io.Reader) (CommandResult, error) {
	var c CommandResult
	op, err := readI32(r)
	if err != nil {
		return c, err
	}
	c.Op = CommandOp(op)
	fields := make([]string, 5)
	for i := range fields {
		if fields[i], err = readString(r); err != nil {
			return c, err
		}
	}
	c.Shell, c.ShellFlag, c.Cmd, c.Result, c.Source = fields[0], fields[1], fields[2], fields[3], fields[4]
	line, err := readI32(r)
	if err != nil {
		return c, err
	}
	c.Line = int(line)
	if c.Op == CmdFind {
		if c.MissingDirs, err = readStringList(r); err != nil {
			return c, err
		}
		if c.Files, err = readStringList(r); err != nil {
			return c, err
		}
		if c.ReadDirs, err = readStringList(r); err != nil {
			return c, err
		}
	}
	return c, nil
}

func writeF64(w io.Writer, f float64) error {
	return binary.Write(w, binary.LittleEndian, math.Float64bits(f))
}

func readF64(r io.Reader) (float64, error) {
	var bits uint64
	if err := binary.Read(r, binary.LittleEndian, &bits); err != nil {
		return 0, err
	}
	return math.Float64frombits(bits), nil
}

func writeI32(w io.Writer, n int32) error {
	return binary.Write(w, binary.LittleEndian, n)
}

func readI32(r io.Reader) (int32, error) {
	var n int32
	err := binary.Read(r, binary.LittleEndian, &n)
	return n, err
}

func writeString(w io.Writer, s string) error {
	if err := writeI32(w, int32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r io.Reader) (string, error) {
	n, err := readI32(r)
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func writeStringList(w io.Writer, list []string) error {
	if err := writeI32(w, int32(len(list))); err != nil {
		return err
	}
	for _, s := range list {
		if err := writeString(w, s); err != nil {
			return err
		}
	}
	return nil
}

func readStringList(r io.Reader) ([]string, error) {
	n, err := readI32(r)
	if err != nil {
		return nil, err
	}
	out := make([]string, n)
	for i := range out {
		if out[i], err = readString(r); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// stampPath is the default location of the regeneration stamp, alongside
// the build output directory.
func stampPath(dir string) string {
	if dir == "" {
		dir = "."
	}
	return dir + "/.kati_stamp"
}
