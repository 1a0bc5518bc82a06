package verify

import "regexp"

const archTokens = `x86_64|x86-64|amd64|aarch64|arm64|armhf|armv7l|i386|i686`

var (
	// App-1.0.0-1-x86_64.AppImage -> App-1.0.0-x86_64.AppImage
	buildBeforeArchRe = regexp.MustCompile(`(?i)(\d+\.\d+(?:\.\d+)*)[-_]\d+([-_.](?:` + archTokens + `))`)
	// App-1.0.0-1.AppImage -> App-1.0.0.AppImage
	buildBeforeExtRe = regexp.MustCompile(`(?i)(\d+\.\d+(?:\.\d+)*)[-_]\d+(\.appimage)$`)
)

// FilenameVariants returns name plus up to three variants with a numeric
// build token removed where it sits between a dotted version and the
// architecture or extension suffix. The version itself is never touched,
// so App-1.0.1 and App-1.0.2 stay distinct.
func FilenameVariants(name string) []string {
	variants := []string{name}
	add := func(v string) {
		for _, seen := range variants {
			if seen == v {
				return
			}
		}
		variants = append(variants, v)
	}

	arch := buildBeforeArchRe.ReplaceAllString(name, "$1$2")
	ext := buildBeforeExtRe.ReplaceAllString(name, "$1$2")
	add(arch)
	add(ext)
	add(buildBeforeExtRe.ReplaceAllString(arch, "$1$2"))
	return variants
}

// FilenamesEquivalent reports whether the variant sets of a and b intersect.
func FilenamesEquivalent(a, b string) bool {
	if a == b {
		return true
	}
	bv := FilenameVariants(b)
	for _, x := range FilenameVariants(a) {
		for _, y := range bv {
			if x == y {
				return true
			}
		}
	}
	return false
}
