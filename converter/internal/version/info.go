package version

import (
	"errors"
	"runtime/debug"
)

// Info describes the converter build. It's recorded with every conversion so
// that a problem report can be tied to the release that produced it.
type Info struct {
	Arch         string `json:"arch"`
	GoVersion    string `json:"go_version"`
	Revision     string `json:"revision"`
	RevisionTime string `json:"revision_time"`
	Version      string `json:"version"`
}

func GetInfo() (*Info, error) {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return nil, errors.New("could not read build info")
	}
	var revision, revisionTime, arch string
	for _, setting := range buildInfo.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.time":
			revisionTime = setting.Value
		case "vcs.modified":
			if setting.Value == "true" {
				revision += "+dirty"
			}
		case "GOARCH":
			arch = setting.Value
		}
	}
	return &Info{
		Version:      buildInfo.Main.Version,
		GoVersion:    buildInfo.GoVersion,
		Revision:     revision,
		RevisionTime: revisionTime,
		Arch:         arch,
	}, nil
}

// String returns the version, or "(devel)" for builds outside of a module
// release.
func (i *Info) String() string {
	if i == nil || i.Version == "" {
		return "(devel)"
	}
	return i.Version
}
