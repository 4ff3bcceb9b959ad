package sim

import (
	"encoding/json"
	"os"
	"sync"

	"relaychain-sim/internal/telemetry"
)

// FileWriter writes status, link and deployment records to JSONL files.
type FileWriter struct {
	mu         sync.Mutex
	statusFile *os.File
	linkFile   *os.File
	depFile    *os.File
	statusEnc  *json.Encoder
	linkEnc    *json.Encoder
	depEnc     *json.Encoder
}

// NewFileWriter creates a FileWriter. linkPath or deploymentPath may be empty to skip those logs.
func NewFileWriter(statusPath, linkPath, deploymentPath string) (*FileWriter, error) {
	sf, err := os.Create(statusPath)
	if err != nil {
		return nil, err
	}
	fw := &FileWriter{statusFile: sf, statusEnc: json.NewEncoder(sf)}
	if linkPath != "" {
		lf, err := os.Create(linkPath)
		if err != nil {
			fw.Close()
			return nil, err
		}
		fw.linkFile = lf
		fw.linkEnc = json.NewEncoder(lf)
	}
	if deploymentPath != "" {
		df, err := os.Create(deploymentPath)
		if err != nil {
			fw.Close()
			return nil, err
		}
		fw.depFile = df
		fw.depEnc = json.NewEncoder(df)
	}
	return fw, nil
}

// WriteStatus logs a single status row.
func (f *FileWriter) WriteStatus(row telemetry.StatusRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statusEnc.Encode(row)
}

// WriteStatuses logs multiple status rows.
func (f *FileWriter) WriteStatuses(rows []telemetry.StatusRow) error {
	for _, r := range rows {
		if err := f.WriteStatus(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteLinks logs link rows, if enabled.
func (f *FileWriter) WriteLinks(rows []telemetry.LinkRow) error {
	if f.linkEnc == nil {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range rows {
		if err := f.linkEnc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteDeployment logs a deployment row, if enabled.
func (f *FileWriter) WriteDeployment(row telemetry.DeploymentRow) error {
	if f.depEnc == nil {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.depEnc.Encode(row)
}

// Close closes any underlying files.
func (f *FileWriter) Close() error {
	var err error
	for _, file := range []*os.File{f.statusFile, f.linkFile, f.depFile} {
		if file == nil {
			continue
		}
		if e := file.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}
