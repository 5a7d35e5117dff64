package cmd

import (
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"
)

const defaultOutput = "canframes"

// FrameJob is one frame to generate in batch mode
type FrameJob struct {
	Source string `toml:"source"`
	Name   string `toml:"name"`
	Mode   string `toml:"mode"`
}

// Config contains the representation of a TOML file describing the frames
// to generate
type Config struct {
	Output   string     `toml:"output"`
	Mode     string     `toml:"mode"`
	Includes []string   `toml:"includes"`
	Frame    []FrameJob `toml:"frame"`
}

// loadConfig reads path, or returns the defaults when path is empty.
// Relative paths inside the file are resolved against its directory.
func loadConfig(path string) (Config, error) {
	conf := Config{Output: defaultOutput, Mode: "header"}
	if path == "" {
		return conf, nil
	}

	md, err := toml.DecodeFile(path, &conf)
	if err != nil {
		return conf, errors.Wrapf(err, "reading config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return conf, errors.Newf("config %s: unknown keys %v", path, undecoded)
	}

	dir := filepath.Dir(path)
	if !filepath.IsAbs(conf.Output) {
		conf.Output = filepath.Join(dir, conf.Output)
	}
	for i := range conf.Frame {
		job := &conf.Frame[i]
		if job.Source == "" || job.Name == "" {
			return conf, errors.Newf("config %s: frame %d needs both source and name", path, i+1)
		}
		if !filepath.IsAbs(job.Source) {
			job.Source = filepath.Join(dir, job.Source)
		}
	}
	return conf, nil
}
