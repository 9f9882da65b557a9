package repair

import (
	"archive/zip"
	"encoding/json"
	"os"
	"path"
	"strconv"

	"github.com/entropydec/gsrb/step"
	"github.com/entropydec/gsrb/xlog"
	"github.com/pkg/errors"
)

// Save writes the repaired script to p.
func (s *Session) Save(p string) error {
	if err := os.WriteFile(p, []byte(s.Script()), 0o644); err != nil {
		return errors.Wrapf(err, "write script to %s", p)
	}
	return nil
}

// SaveVerbose writes the verbose-output archive to p: every committed
// step's before/after capture under ui/, the newline-delimited record of
// events (record.txt), the pretest script if one was supplied, and the
// captured debug log.
func (s *Session) SaveVerbose(p string) error {
	f, err := os.Create(p)
	if err != nil {
		return errors.Wrapf(err, "create verbose archive %s", p)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	defer zw.Close()

	var record []byte
	uiIndex := 0
	for _, r := range s.result {
		line, err := json.Marshal(r.Event)
		if err != nil {
			return errors.Wrap(err, "marshal event")
		}
		record = append(record, line...)
		record = append(record, '\n')

		if r.UIBefore.Empty() && r.UIAfter.Empty() {
			continue
		}
		if err := writeUI(zw, uiIndex*2, r.UIBefore); err != nil {
			return err
		}
		if err := writeUI(zw, uiIndex*2+1, r.UIAfter); err != nil {
			return err
		}
		uiIndex++

		if r.assertion != nil {
			line, err := json.Marshal(r.assertion.Event)
			if err != nil {
				return errors.Wrap(err, "marshal assertion event")
			}
			record = append(record, line...)
			record = append(record, '\n')
		}
	}

	manifest, err := json.Marshal(struct {
		RunID   string `json:"runId"`
		Package string `json:"package"`
	}{RunID: s.runID.String(), Package: s.cfg.Package})
	if err != nil {
		return errors.Wrap(err, "marshal manifest")
	}
	if err := writeZipFile(zw, "manifest.json", manifest); err != nil {
		return err
	}

	if err := writeZipFile(zw, "record.txt", record); err != nil {
		return err
	}
	if s.pretest != "" {
		if err := writeZipFile(zw, "pretest.py", []byte(s.pretest)); err != nil {
			return err
		}
	}
	if err := writeZipFile(zw, "gsrb.debug.log", []byte(xlog.DebugLog())); err != nil {
		return err
	}
	return nil
}

func writeUI(zw *zip.Writer, i int, ui step.Ui) error {
	if err := writeZipFile(zw, uiPath(i, "xml"), []byte(ui.XML)); err != nil {
		return err
	}
	return writeZipFile(zw, uiPath(i, "png"), ui.PNG)
}

func writeZipFile(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return errors.Wrapf(err, "create %s in archive", name)
	}
	_, err = w.Write(data)
	return err
}

func uiPath(i int, ext string) string {
	return path.Join("ui", strconv.Itoa(i)+"."+ext)
}
