// Package step groups a recorded Event with the screen captures taken
// before and after it, and loads a recorded archive into a TestCase.
package step

import (
	"archive/zip"
	"encoding/json"
	"io"
	"io/fs"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/entropydec/gsrb/event"
	"github.com/pkg/errors"
)

// Ui is a screen capture: the hierarchy XML dump paired with its
// screenshot PNG.
type Ui struct {
	XML string
	PNG []byte
}

// Empty reports whether u carries no capture data.
func (u Ui) Empty() bool { return len(u.XML) == 0 && len(u.PNG) == 0 }

// Step is a single replay unit: the event performed, plus the screen
// captured immediately before and after it. Synthesized steps (generated
// assertions added to the recording afterwards, flagged "generated") carry
// no capture, since they never ran during the original recording.
type Step struct {
	Event    event.Event
	UIBefore Ui
	UIAfter  Ui
}

// HasUI reports whether both before/after captures are present.
func (s Step) HasUI() bool { return !s.UIBefore.Empty() && !s.UIAfter.Empty() }

// TestCase is an ordered replay sequence.
type TestCase []Step

// archive abstracts over a directory and a zip file so LoadTestCase can
// read either uniformly.
type archive interface {
	readFile(name string) ([]byte, error)
}

type dirArchive struct{ root string }

func (a dirArchive) readFile(name string) ([]byte, error) {
	data, err := os.ReadFile(path.Join(a.root, name))
	if err != nil {
		return nil, err
	}
	return data, nil
}

type zipArchive struct{ zr *zip.Reader }

func (a zipArchive) readFile(name string) ([]byte, error) {
	f, err := a.zr.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// LoadTestCase loads a recorded archive, either a directory or a zip file,
// at p. When generate is true, record_with_assertion.txt is read instead of
// record.txt (the variant the LLM assertion-oracle has annotated). It
// returns the decoded steps and the pretest script, if present.
func LoadTestCase(p string, generate bool) (TestCase, string, error) {
	info, err := os.Stat(p)
	if err != nil {
		return nil, "", errors.Wrap(err, "stat archive")
	}

	var ar archive
	if info.IsDir() {
		ar = dirArchive{root: p}
	} else {
		f, err := os.Open(p)
		if err != nil {
			return nil, "", errors.Wrap(err, "open archive")
		}
		defer f.Close()
		stat, err := f.Stat()
		if err != nil {
			return nil, "", errors.Wrap(err, "stat archive file")
		}
		zr, err := zip.NewReader(f, stat.Size())
		if err != nil {
			return nil, "", errors.Wrap(err, "open zip archive")
		}
		ar = zipArchive{zr: zr}
	}

	pretest := ""
	if data, err := ar.readFile("pretest.py"); err == nil {
		pretest = string(data)
	} else if !errors.Is(err, fs.ErrNotExist) && !os.IsNotExist(err) {
		return nil, "", errors.Wrap(err, "read pretest.py")
	}

	recordName := "record.txt"
	if generate {
		recordName = "record_with_assertion.txt"
	}
	raw, err := ar.readFile(recordName)
	if err != nil {
		return nil, "", errors.Wrapf(err, "read %s", recordName)
	}

	var events []event.Event
	for _, line := range strings.Split(string(raw), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var e event.Event
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			return nil, "", errors.Wrap(err, "decode event")
		}
		events = append(events, e)
	}

	loadUI := func(i int) (Ui, Ui, error) {
		before, err := loadUIFile(ar, i*2)
		if err != nil {
			return Ui{}, Ui{}, err
		}
		after, err := loadUIFile(ar, i*2+1)
		if err != nil {
			return Ui{}, Ui{}, err
		}
		return before, after, nil
	}

	var result TestCase
	i := 0
	for _, e := range events {
		if _, generated := e.Parameter["generated"]; generated {
			result = append(result, Step{Event: e})
			continue
		}
		before, after, err := loadUI(i)
		if err != nil {
			return nil, "", err
		}
		result = append(result, Step{Event: e, UIBefore: before, UIAfter: after})
		i++
	}

	return result, pretest, nil
}

func loadUIFile(ar archive, i int) (Ui, error) {
	xmlData, err := ar.readFile(path.Join("ui", strconv.Itoa(i)+".xml"))
	if err != nil {
		return Ui{}, errors.Wrapf(err, "read ui/%d.xml", i)
	}
	pngData, err := ar.readFile(path.Join("ui", strconv.Itoa(i)+".png"))
	if err != nil {
		return Ui{}, errors.Wrapf(err, "read ui/%d.png", i)
	}
	return Ui{XML: string(xmlData), PNG: pngData}, nil
}
