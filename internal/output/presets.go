package output

import "fmt"

// PresetNames lists the built-in output layout presets in display order.
var PresetNames = []string{
	"same-dir",
	"encoded-subdir",
	"by-codec",
	"by-date",
	"res-codec",
	"quality-test",
	"archive",
	"custom",
}

// Preset returns a Generator configured for a named output layout.
func Preset(name string) (*Generator, error) {
	g := New()

	switch name {
	case "same-dir":
		// default behavior, same directory with suffix
		g.SetNamingOptions("_encoded", g.extension, false, false, false, false)

	case "encoded-subdir":
		g.SetSubdirectoryPattern("encoded")
		g.SetNamingOptions("", g.extension, false, false, false, false)

	case "by-codec":
		g.SetSubdirectoryPattern("{codec}")
		g.SetNamingOptions("", g.extension, false, false, true, false)

	case "by-date":
		g.SetSubdirectoryPattern("{date}")
		g.SetNamingOptions("", g.extension, false, false, false, false)

	case "res-codec":
		g.SetNamingOptions("", g.extension, true, true, false, false)

	case "quality-test":
		g.SetSubdirectoryPattern("quality_test")
		g.SetNamingOptions("", g.extension, false, false, true, true)
		if err := g.SetOverwritePolicy(string(PolicyIncrement)); err != nil {
			return nil, err
		}

	case "archive":
		g.SetSubdirectoryPattern("archived/{codec}")
		g.SetNamingOptions("_archived", g.extension, true, false, false, false)

	case "custom":
		// starting point for user customization
		g.SetNamingOptions("_processed", g.extension, false, false, false, false)

	default:
		return nil, fmt.Errorf("unknown output preset: %q", name)
	}

	return g, nil
}
