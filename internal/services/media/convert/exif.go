package convert

import "bytes"

// JPEG segment markers.
const (
	markerSOI  = 0xD8
	markerAPP1 = 0xE1
)

var exifHeader = []byte("Exif\x00\x00")

// preserveExif splices the source's EXIF APP1 segment into the re-encoded
// JPEG. The standard library encoder drops metadata; embedded orientation and
// capture data are worth carrying over. Returns dst unchanged when the source
// carries no EXIF or either side is not a JPEG.
func preserveExif(src, dst []byte) []byte {
	seg := findExifSegment(src)
	if seg == nil {
		return dst
	}
	if len(dst) < 2 || dst[0] != 0xFF || dst[1] != markerSOI {
		return dst
	}

	out := make([]byte, 0, len(dst)+len(seg))
	out = append(out, dst[:2]...)
	out = append(out, seg...)
	out = append(out, dst[2:]...)
	return out
}

// findExifSegment returns the full APP1 Exif segment (marker included) from a
// JPEG byte stream, or nil.
func findExifSegment(data []byte) []byte {
	if len(data) < 4 || data[0] != 0xFF || data[1] != markerSOI {
		return nil
	}

	i := 2
	for i+4 <= len(data) {
		if data[i] != 0xFF {
			return nil
		}
		marker := data[i+1]
		// Standalone markers or start of scan end the metadata section.
		if marker == 0xDA || marker == 0xD9 {
			return nil
		}
		length := int(data[i+2])<<8 | int(data[i+3])
		if length < 2 || i+2+length > len(data) {
			return nil
		}
		if marker == markerAPP1 && bytes.HasPrefix(data[i+4:], exifHeader) {
			return data[i : i+2+length]
		}
		i += 2 + length
	}
	return nil
}
