package valueobject

import (
	"fmt"
	"strings"
)

// ArtifactKind distinguishes the files produced for an event.
type ArtifactKind string

const (
	ArtifactImage      ArtifactKind = "image"
	ArtifactScreenshot ArtifactKind = "screenshot"
)

func (k ArtifactKind) String() string {
	return string(k)
}

func (k ArtifactKind) Validate() error {
	switch k {
	case ArtifactImage, ArtifactScreenshot:
		return nil
	default:
		return fmt.Errorf("unknown artifact kind: %s", string(k))
	}
}

// ContentType is the MIME type the artifact is stored under.
func (k ArtifactKind) ContentType() string {
	if k == ArtifactScreenshot {
		return "image/png"
	}
	return "image/jpeg"
}

var unsafeNameChars = strings.NewReplacer("/", "_", "\\", "_", "\x00", "_")

// ImageFileName returns "{title}_img{index}.jpg". Index starts at 1.
func ImageFileName(title string, index int) string {
	return fmt.Sprintf("%s_img%d.jpg", fileStem(title), index)
}

// ScreenshotFileName returns "{title}_screenshot.png".
func ScreenshotFileName(title string) string {
	return fmt.Sprintf("%s_screenshot.png", fileStem(title))
}

// fileStem keeps the title verbatim except for characters that would escape the output directory.
func fileStem(title string) string {
	return unsafeNameChars.Replace(title)
}
