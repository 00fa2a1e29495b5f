package normalize

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
)

// maxHeaderLine bounds how much of the file is read looking for the first line.
const maxHeaderLine = 1024

var digitRun = regexp.MustCompile(`\d+`)

// Version is a major.minor format version as declared in a file header.
type Version struct {
	Major int
	Minor int
}

// Threshold is the highest version the template importer reads without conversion.
var Threshold = Version{Major: 1, Minor: 4}

func (v Version) String() string { return fmt.Sprintf("%d.%d", v.Major, v.Minor) }

// Compare returns -1, 0 or 1.
func (v Version) Compare(o Version) int {
	switch {
	case v.Major != o.Major:
		if v.Major < o.Major {
			return -1
		}
		return 1
	case v.Minor < o.Minor:
		return -1
	case v.Minor > o.Minor:
		return 1
	}
	return 0
}

// ParseVersion extracts the digit runs of a header line, e.g. "%PDF-1.7" -> 1.7.
// The first run is the major version and the second, if any, the minor.
func ParseVersion(line string) (Version, bool) {
	runs := digitRun.FindAllString(line, 2)
	if len(runs) == 0 {
		return Version{}, false
	}
	var v Version
	var err error
	if v.Major, err = strconv.Atoi(runs[0]); err != nil {
		return Version{}, false
	}
	if len(runs) > 1 {
		if v.Minor, err = strconv.Atoi(runs[1]); err != nil {
			return Version{}, false
		}
	}
	return v, true
}

// HeaderLine returns the first line of r without its terminator. Lines ending in
// a bare carriage return are cut there too.
func HeaderLine(r io.Reader) (string, error) {
	br := bufio.NewReaderSize(r, maxHeaderLine)
	line, err := br.ReadSlice('\n')
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return "", err
	}
	if i := bytes.IndexByte(line, '\r'); i >= 0 {
		line = line[:i]
	}
	return string(bytes.TrimRight(line, "\n")), nil
}

// ReadVersion reads the declared version from the first line of the file at path.
func ReadVersion(path string) (Version, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return Version{}, false, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	line, err := HeaderLine(f)
	if err != nil {
		return Version{}, false, fmt.Errorf("read header of %s: %w", path, err)
	}
	v, ok := ParseVersion(line)
	return v, ok, nil
}
