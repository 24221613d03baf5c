// Package source reads the file hand-off produced by the extraction
// step: one directory per extract type and reference date, holding raw
// JSON documents (one per fund or per page). The reader only splits
// documents into raw records and surfaces the upstream skip signal; all
// normalization belongs to the mapper.
package source

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/catalise/fundingest/internal/models"
)

// FileBatch is the content of one extract document: its raw records plus
// the funds the source explicitly reported "no data available" for. Err
// is set when the document could not be read or parsed, so the caller can
// report the file as failed rather than empty.
type FileBatch struct {
	File          string
	ReferenceDate string
	Records       []models.SourceRecord
	SkippedFunds  []string
	Err           error
}

// Reader walks the extraction output tree: {base}/{extract}/{date}/*.json.
type Reader struct {
	base string
}

// NewReader creates a Reader rooted at the extraction output directory.
func NewReader(base string) *Reader {
	return &Reader{base: base}
}

// document is the envelope every extract file shares. Marker files for
// funds with no data carry an empty result and name the fund.
type document struct {
	Result []map[string]any `json:"result"`
	Fund   string           `json:"fund,omitempty"`
	Status string           `json:"status,omitempty"`
}

// ReadBatches reads every document for one extract type and date, sorted
// by file name so processing order is reproducible. A missing directory
// is not an error: it means extraction produced nothing for that date.
func (r *Reader) ReadBatches(extract models.ExtractType, date string) ([]FileBatch, error) {
	dir := filepath.Join(r.base, string(extract), date)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			log.Infof("no extraction output for %s on %s", extract, date)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read extract dir %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	batches := make([]FileBatch, 0, len(names))
	for _, name := range names {
		batch, err := r.readFile(filepath.Join(dir, name), date)
		if err != nil {
			// A malformed file is reported, not fatal to the date.
			log.Errorf("failed to read %s: %v", name, err)
			batches = append(batches, FileBatch{File: name, ReferenceDate: date, Err: err})
			continue
		}
		batches = append(batches, batch)
	}
	return batches, nil
}

func (r *Reader) readFile(path, date string) (FileBatch, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return FileBatch{}, err
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return FileBatch{}, fmt.Errorf("invalid JSON: %w", err)
	}

	batch := FileBatch{File: filepath.Base(path), ReferenceDate: date}

	// "No data" marker written by extraction: the explicit skip signal.
	if len(doc.Result) == 0 {
		if doc.Fund != "" {
			batch.SkippedFunds = []string{doc.Fund}
		}
		return batch, nil
	}

	for _, item := range doc.Result {
		batch.Records = append(batch.Records, expand(item)...)
	}
	return batch, nil
}

// expand splits one result item into raw records. Profitability documents
// nest a data array under each fund; each element becomes one record with
// the fund name injected at the top level. Flat items pass through.
func expand(item map[string]any) []models.SourceRecord {
	fundName, hasName := item["fundName"].(string)
	nested, hasData := item["data"].([]any)
	if !hasName || !hasData {
		return []models.SourceRecord{models.SourceRecord(item)}
	}

	records := make([]models.SourceRecord, 0, len(nested))
	for _, d := range nested {
		m, ok := d.(map[string]any)
		if !ok {
			continue
		}
		rec := make(models.SourceRecord, len(m)+1)
		for k, v := range m {
			rec[k] = v
		}
		rec["fundName"] = fundName
		records = append(records, rec)
	}
	return records
}
