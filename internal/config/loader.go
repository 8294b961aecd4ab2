package config

import (
	"encoding/json"
	"os"
)

// RunSettings describes one looped generation run. It is the JSON body of the
// web API's start request and the optional settings file accepted by the CLI.
type RunSettings struct {
	Prompt           string  `json:"prompt"`
	Iterations       int     `json:"iterations"`
	Seed             int64   `json:"seed"`
	Height           int     `json:"height"`
	Width            int     `json:"width"`
	NumFrames        int     `json:"num_frames"`
	InputImage       string  `json:"input_image,omitempty"`
	OutputDir        string  `json:"output_dir,omitempty"`
	DelaySeconds     float64 `json:"delay_seconds,omitempty"`
	Stitch           bool    `json:"stitch"`
	StitchedFilename string  `json:"stitched_filename,omitempty"`
	ErrorOnEmpty     bool    `json:"error_on_empty,omitempty"`
}

// Load reads run settings from a JSON file and fills in generation defaults.
func Load(filepath string) (*RunSettings, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, err
	}

	var rs RunSettings
	if err := json.Unmarshal(data, &rs); err != nil {
		return nil, err
	}
	rs.ApplyDefaults()

	return &rs, nil
}

// ApplyDefaults fills zero-valued generation parameters with the defaults
// used by the reference pipeline.
func (rs *RunSettings) ApplyDefaults() {
	if rs.Iterations == 0 {
		rs.Iterations = 10
	}
	if rs.Height == 0 {
		rs.Height = 512
	}
	if rs.Width == 0 {
		rs.Width = 768
	}
	if rs.NumFrames == 0 {
		rs.NumFrames = 60
	}
	if rs.Seed == 0 {
		rs.Seed = 1337
	}
	if rs.StitchedFilename == "" {
		rs.StitchedFilename = "final_stitched_video.mp4"
	}
}
