package wizard

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/thruflo/ttsdash/internal/api"
	"github.com/thruflo/ttsdash/internal/files"
	"github.com/thruflo/ttsdash/internal/notify"
)

// DatasetStage is a stage of the dataset preparation flow.
type DatasetStage int

const (
	DatasetUpload DatasetStage = iota
	DatasetName
	DatasetPrepare
	DatasetDone
)

func (s DatasetStage) String() string {
	switch s {
	case DatasetUpload:
		return "upload"
	case DatasetName:
		return "name-model"
	case DatasetPrepare:
		return "prepare"
	case DatasetDone:
		return "done"
	default:
		return "unknown"
	}
}

// DatasetClient is the backend surface used by dataset preparation.
type DatasetClient interface {
	CreateModelDir(ctx context.Context, name string) (*api.MessageResponse, error)
	ProcessDataset(ctx context.Context, name, path string) (*api.ProcessDatasetResponse, error)
}

// Dataset is the upload -> name-model -> prepare flow over a file
// collection. Files are collected locally in the upload stage; the model
// directory must exist before any file is processed into it.
type Dataset struct {
	*Wizard[DatasetStage]

	files *files.Collection
	sink  notify.Sink

	mu sync.Mutex
	// results holds one entry per processed file; a retried prepare stage
	// resumes after the last success.
	results []api.ProcessDatasetResponse
}

// NewDataset builds the dataset flow. Rejected files and per-file progress
// are reported to sink.
func NewDataset(c DatasetClient, collection *files.Collection, sink notify.Sink) *Dataset {
	if sink == nil {
		sink = notify.Discard
	}
	d := &Dataset{files: collection, sink: sink}

	d.Wizard = MustNew("dataset", DatasetUpload, DatasetDone,
		Step[DatasetStage]{
			Stage:    DatasetUpload,
			Next:     DatasetName,
			Validate: d.requireFiles,
			Submit: func(ctx context.Context, f Fields) (notify.Notice, error) {
				n := d.files.Len()
				return notify.Success("Files uploaded successfully",
					fmt.Sprintf("%d file(s) have been uploaded.", n)), nil
			},
			FailureTitle: "Upload failed",
			Fallback:     "Could not collect the files.",
		},
		Step[DatasetStage]{
			Stage:    DatasetName,
			Next:     DatasetPrepare,
			Carry:    []string{FieldModelName},
			Validate: requireModelName,
			Submit: func(ctx context.Context, f Fields) (notify.Notice, error) {
				name := strings.TrimSpace(f[FieldModelName])
				resp, err := c.CreateModelDir(ctx, name)
				if err != nil {
					return notify.Notice{}, err
				}
				return notify.Success("Model folder ready", resp.Message), nil
			},
			FailureTitle: "Failed to create model folder",
			Fallback:     "Something went wrong while creating the model folder.",
		},
		Step[DatasetStage]{
			Stage:    DatasetPrepare,
			Next:     DatasetDone,
			Carry:    []string{FieldModelName},
			Validate: d.requireFiles,
			Submit: func(ctx context.Context, f Fields) (notify.Notice, error) {
				if err := d.process(ctx, c, strings.TrimSpace(f[FieldModelName])); err != nil {
					return notify.Notice{}, err
				}
				return notify.Success("Dataset preparation complete", "Your dataset is ready for training!"), nil
			},
			FailureTitle: "Dataset preparation failed",
			Fallback:     "Something went wrong while processing the dataset.",
		},
	)
	return d
}

func (d *Dataset) requireFiles(Fields) error {
	if d.files.Len() == 0 {
		return &ValidationError{
			Field:   "files",
			Title:   "No files to prepare",
			Message: "Please upload some files first.",
		}
	}
	return nil
}

// process uploads every collected file not yet processed, in order.
func (d *Dataset) process(ctx context.Context, c DatasetClient, name string) error {
	all := d.files.Files()

	d.mu.Lock()
	start := len(d.results)
	d.mu.Unlock()

	for i := start; i < len(all); i++ {
		f := all[i]
		resp, err := c.ProcessDataset(ctx, name, f.LocationRef)
		if err != nil {
			return fmt.Errorf("processing %s: %w", f.Name, err)
		}

		d.mu.Lock()
		d.results = append(d.results, *resp)
		d.mu.Unlock()

		d.sink.Notify(notify.Info("Preparation Progress",
			fmt.Sprintf("Processed %s (%d/%d)", f.Name, i+1, len(all))))
	}
	return nil
}

// AddFiles offers paths to the collection. Files may only be added in the
// upload stage. Each rejected file is reported to the sink.
func (d *Dataset) AddFiles(paths []string) ([]files.Descriptor, []files.Rejection, error) {
	if err := d.requireUploadStage(); err != nil {
		return nil, nil, err
	}
	accepted, rejected := d.files.Accept(paths)
	for _, r := range rejected {
		d.sink.Notify(r.Notice())
	}
	return accepted, rejected, nil
}

// RemoveFile drops the file at index i from the collection.
func (d *Dataset) RemoveFile(i int) (files.Descriptor, error) {
	if err := d.requireUploadStage(); err != nil {
		return files.Descriptor{}, err
	}
	return d.files.Remove(i)
}

func (d *Dataset) requireUploadStage() error {
	st := d.State()
	switch {
	case st.Exited:
		return ErrExited
	case st.Busy:
		return ErrBusy
	case st.Stage != DatasetUpload:
		return fmt.Errorf("%w: files can only change in the %s stage", ErrWrongStage, DatasetUpload)
	}
	return nil
}

// Files returns the collected files.
func (d *Dataset) Files() []files.Descriptor {
	return d.files.Files()
}

// Results returns the backend's response for each processed file.
func (d *Dataset) Results() []api.ProcessDatasetResponse {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]api.ProcessDatasetResponse(nil), d.results...)
}

// Reset starts a new dataset: the wizard returns to upload and the
// collection is emptied.
func (d *Dataset) Reset() error {
	if err := d.Wizard.Reset(); err != nil {
		return err
	}
	d.files.Clear()
	d.mu.Lock()
	d.results = nil
	d.mu.Unlock()
	return nil
}
