// Package runinfo reads the RunInfo.xml descriptor an Illumina instrument
// writes into every run directory.
package runinfo

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/seahurt/bcl2fq-local/internal/model"
)

// RunInfo is the part of RunInfo.xml bcl2fq cares about.
type RunInfo struct {
	ID         string
	Number     int
	Flowcell   string
	Instrument string
	Date       string
	Reads      []model.ReadDescriptor
}

type xmlRunInfo struct {
	XMLName xml.Name `xml:"RunInfo"`
	Run     *xmlRun  `xml:"Run"`
}

type xmlRun struct {
	ID         string `xml:"Id,attr"`
	Number     string `xml:"Number,attr"`
	Flowcell   string `xml:"Flowcell"`
	Instrument string `xml:"Instrument"`
	Date       string `xml:"Date"`
	Reads      struct {
		Read []xmlRead `xml:"Read"`
	} `xml:"Reads"`
}

type xmlRead struct {
	Number        string `xml:"Number,attr"`
	NumCycles     string `xml:"NumCycles,attr"`
	IsIndexedRead string `xml:"IsIndexedRead,attr"`
}

// Path returns the location of RunInfo.xml inside a run directory.
func Path(dir string) string {
	return filepath.Join(dir, model.RunInfoFile)
}

// Read loads and parses RunInfo.xml from the run directory dir. Every
// failure is a *model.MetadataError.
func Read(dir string) (RunInfo, error) {
	path := Path(dir)
	f, err := os.Open(path)
	if err != nil {
		return RunInfo{}, &model.MetadataError{Path: path, Err: err}
	}
	defer func() {
		_ = f.Close()
	}()

	info, err := parse(xml.NewDecoder(f))
	if err != nil {
		return RunInfo{}, &model.MetadataError{Path: path, Err: err}
	}
	return info, nil
}

// Parse is Read for an in-memory document.
func Parse(b []byte) (RunInfo, error) {
	info, err := parse(xml.NewDecoder(bytes.NewReader(b)))
	if err != nil {
		return RunInfo{}, &model.MetadataError{Path: model.RunInfoFile, Err: err}
	}
	return info, nil
}

func parse(dec *xml.Decoder) (RunInfo, error) {
	var doc xmlRunInfo
	if err := dec.Decode(&doc); err != nil {
		return RunInfo{}, fmt.Errorf("decoding xml: %w", err)
	}
	if doc.Run == nil {
		return RunInfo{}, errors.New("missing Run element")
	}
	run := doc.Run
	if len(run.Reads.Read) == 0 {
		return RunInfo{}, model.ErrNoReads
	}

	info := RunInfo{
		ID:         run.ID,
		Flowcell:   strings.TrimSpace(run.Flowcell),
		Instrument: strings.TrimSpace(run.Instrument),
		Date:       strings.TrimSpace(run.Date),
		Reads:      make([]model.ReadDescriptor, 0, len(run.Reads.Read)),
	}
	if run.Number != "" {
		n, err := strconv.Atoi(run.Number)
		if err != nil {
			return RunInfo{}, fmt.Errorf("run number %q: %w", run.Number, err)
		}
		info.Number = n
	}

	for idx, r := range run.Reads.Read {
		if r.NumCycles == "" {
			return RunInfo{}, fmt.Errorf("read %d: missing NumCycles", idx+1)
		}
		cycles, err := strconv.Atoi(strings.TrimSpace(r.NumCycles))
		if err != nil {
			return RunInfo{}, fmt.Errorf("read %d: NumCycles %q: %w", idx+1, r.NumCycles, err)
		}
		if cycles < 1 {
			return RunInfo{}, fmt.Errorf("read %d: NumCycles must be positive, got %d", idx+1, cycles)
		}

		number := idx + 1
		if r.Number != "" {
			number, err = strconv.Atoi(strings.TrimSpace(r.Number))
			if err != nil {
				return RunInfo{}, fmt.Errorf("read %d: Number %q: %w", idx+1, r.Number, err)
			}
		}

		info.Reads = append(info.Reads, model.ReadDescriptor{
			Number:  number,
			Cycles:  cycles,
			Indexed: model.IndexFlag(r.IsIndexedRead),
		})
	}
	return info, nil
}
