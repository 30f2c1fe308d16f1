package cli

import (
	"strings"

	"github.com/spf13/pflag"

	"github.com/danieljhkim/pkgsync/internal/apply"
)

var (
	// Global flags
	jsonOutput   bool
	backendFlags []string
	noConfirm    bool
	reviewFlag   reviewModeValue
	configPath   string
	simulate     bool
	verbose      bool
)

// reviewModeValue is a pflag.Value that rejects unknown review modes at
// parse time.
type reviewModeValue struct {
	value string
}

var _ pflag.Value = (*reviewModeValue)(nil)

func (v *reviewModeValue) String() string {
	return v.value
}

func (v *reviewModeValue) Set(s string) error {
	mode, err := apply.ParseReviewMode(s)
	if err != nil {
		return err
	}
	v.value = string(mode)
	return nil
}

func (v *reviewModeValue) Type() string {
	return "mode"
}

// normalizeFlagName maps flag spellings onto their canonical names.
func normalizeFlagName(f *pflag.FlagSet, name string) pflag.NormalizedName {
	name = strings.ReplaceAll(name, "_", "-")
	switch name {
	case "unreviewed", "no-confirm":
		name = "noconfirm"
	}
	return pflag.NormalizedName(name)
}

// resetFlags restores every global flag to its default.
func resetFlags() {
	jsonOutput = false
	backendFlags = nil
	noConfirm = false
	reviewFlag = reviewModeValue{}
	configPath = ""
	simulate = false
	verbose = false
	syncNoRemove = false
	adoptDryRun = false
	adoptPackages = nil
}
