package profile

import (
	"bufio"
	"errors"
	"io"
	"strconv"
	"strings"
)

var errMalformedName = errors.New("malformed bb-symbol name")

// ParseLegacyText parses the legacy textual profile form.
// linkerOutputFile, if non-empty, is compared against the "@" directive: a
// mismatch yields ErrProfileMismatch and the profile should be silently
// ignored by the caller rather than treated as fatal.
func ParseLegacyText(r io.Reader, linkerOutputFile string) (*ParsedProfile, error) {
	p := &ParsedProfile{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)

	inOutputFilter := true
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if line == "" {
			continue
		}
		tag := line[0]

		if tag != '@' {
			inOutputFilter = false
		}

		switch {
		case tag == '@':
			if !inOutputFilter {
				continue
			}
			p.OutputFilter = append(p.OutputFilter, strings.TrimSpace(line[1:]))
		case tag == '#':
			// comment, ignored
		case tag == '!':
			if len(line) > 1 && line[1] != ' ' && line[1] != '\t' {
				p.FunctionNames = append(p.FunctionNames, line[1:])
			}
			// bare "!" is a comment
		case tag == 'S':
			rec, err := parseSymbolLine(line[1:], lineNo)
			if err != nil {
				return nil, err
			}
			p.Symbols = append(p.Symbols, rec)
		case tag == 'B':
			rec, err := parseBranchLine(line[1:], lineNo)
			if err != nil {
				return nil, err
			}
			p.Branches = append(p.Branches, rec)
		case tag == 'F':
			rec, err := parseFallthroughLine(line[1:], lineNo)
			if err != nil {
				return nil, err
			}
			p.Fallthroughs = append(p.Fallthroughs, rec)
		default:
			return nil, &MalformedError{Line: lineNo, Msg: "unrecognized tag '" + string(tag) + "'"}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	if linkerOutputFile != "" {
		if ok := matchesOutputFilter(p.OutputFilter, linkerOutputFile); !ok && len(p.OutputFilter) > 0 {
			return p, ErrProfileMismatch
		}
	}
	return p, nil
}

func matchesOutputFilter(filter []string, linkerOutputFile string) bool {
	for _, f := range filter {
		if f == linkerOutputFile {
			return true
		}
	}
	return false
}

func parseSymbolLine(rest string, lineNo int) (SymbolRecord, error) {
	fields := strings.Fields(rest)
	if len(fields) < 3 {
		return SymbolRecord{}, &MalformedError{Line: lineNo, Msg: "symbol line needs 3 fields"}
	}
	ordinal, err := strconv.Atoi(fields[0])
	if err != nil || ordinal <= 0 {
		return SymbolRecord{}, &MalformedError{Line: lineNo, Msg: "invalid ordinal"}
	}
	size, err := strconv.ParseUint(fields[1], 16, 64)
	if err != nil {
		return SymbolRecord{}, &MalformedError{Line: lineNo, Msg: "invalid hex size"}
	}
	name := strings.Join(fields[2:], " ")

	rec := SymbolRecord{Ordinal: ordinal, Size: size, Name: name}
	switch {
	case strings.HasPrefix(name, "N"):
		rec.IsFunction = true
		rec.Aliases = strings.Split(name[1:], "/")
	default:
		funcOrd, bbIdx, err := decodeBBSymbolName(name)
		if err != nil {
			return SymbolRecord{}, &MalformedError{Line: lineNo, Msg: err.Error()}
		}
		rec.FuncOrdinal = funcOrd
		rec.BBIndex = bbIdx
	}
	return rec, nil
}

// decodeBBSymbolName decodes a bb-symbol name of the form
// "<funcOrdinal>.<unaryBBIndex>", where the part after the dot is a
// run of '1' characters whose length is the bb index (: "14.111"
// means bb index 3 of function 14).
func decodeBBSymbolName(name string) (funcOrdinal, bbIndex int, err error) {
	dot := strings.IndexByte(name, '.')
	if dot < 0 {
		return 0, 0, errMalformedName
	}
	funcOrdinal, err = strconv.Atoi(name[:dot])
	if err != nil || funcOrdinal <= 0 {
		return 0, 0, errMalformedName
	}
	suffix := name[dot+1:]
	if suffix == "" {
		return 0, 0, errMalformedName
	}
	for i := 0; i < len(suffix); i++ {
		if suffix[i] != '1' {
			return 0, 0, errMalformedName
		}
	}
	return funcOrdinal, len(suffix), nil
}

func parseBranchLine(rest string, lineNo int) (BranchRecord, error) {
	fields := strings.Fields(rest)
	if len(fields) < 3 {
		return BranchRecord{}, &MalformedError{Line: lineNo, Msg: "branch line needs at least 3 fields"}
	}
	from, err := strconv.Atoi(fields[0])
	if err != nil {
		return BranchRecord{}, &MalformedError{Line: lineNo, Msg: "invalid from ordinal"}
	}
	to, err := strconv.Atoi(fields[1])
	if err != nil {
		return BranchRecord{}, &MalformedError{Line: lineNo, Msg: "invalid to ordinal"}
	}
	count, err := strconv.ParseUint(fields[2], 10, 64)
	if err != nil {
		return BranchRecord{}, &MalformedError{Line: lineNo, Msg: "invalid count"}
	}
	tag := TagNone
	if len(fields) >= 4 {
		switch fields[3] {
		case "C":
			tag = TagCall
		case "R":
			tag = TagReturn
		default:
			return BranchRecord{}, &MalformedError{Line: lineNo, Msg: "invalid branch tag"}
		}
	}
	return BranchRecord{From: from, To: to, Count: count, Tag: tag}, nil
}

func parseFallthroughLine(rest string, lineNo int) (FallthroughRecord, error) {
	fields := strings.Fields(rest)
	if len(fields) < 3 {
		return FallthroughRecord{}, &MalformedError{Line: lineNo, Msg: "fallthrough line needs 3 fields"}
	}
	from, err := strconv.Atoi(fields[0])
	if err != nil {
		return FallthroughRecord{}, &MalformedError{Line: lineNo, Msg: "invalid from ordinal"}
	}
	to, err := strconv.Atoi(fields[1])
	if err != nil {
		return FallthroughRecord{}, &MalformedError{Line: lineNo, Msg: "invalid to ordinal"}
	}
	count, err := strconv.ParseUint(fields[2], 10, 64)
	if err != nil {
		return FallthroughRecord{}, &MalformedError{Line: lineNo, Msg: "invalid count"}
	}
	return FallthroughRecord{From: from, To: to, Count: count}, nil
}
