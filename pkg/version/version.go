package version

import (
	"fmt"
	"runtime"
)

// Version represents the current version of mbdbg.
type Version struct {
	Major    string
	Minor    string
	Patch    string
	Metadata string
}

// MbdbgVersion is the current version of mbdbg.
var MbdbgVersion = Version{
	Major: "0", Minor: "3", Patch: "0", Metadata: "",
}

func (v Version) String() string {
	ver := fmt.Sprintf("Version: %s.%s.%s", v.Major, v.Minor, v.Patch)
	if v.Metadata != "" {
		ver += "-" + v.Metadata
	}
	return ver
}

// BuildInfo returns the Go runtime this binary was built with.
func BuildInfo() string {
	return runtime.Version()
}
