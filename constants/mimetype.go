package constants

// MediaClass buckets an upload's mimetype for pipeline routing.
type MediaClass string

const (
	MediaClassPDF         MediaClass = "PDF"
	MediaClassConvertible MediaClass = "CONVERTIBLE" // office/image formats the converter can render to PDF
	MediaClassUnsupported MediaClass = "UNSUPPORTED"
)

const MimetypePDF = "application/pdf"

// ConvertibleMimetypes is the set of media types the document converter accepts.
// Mirrors the LibreOffice/Chromium routes of the conversion service.
var ConvertibleMimetypes = map[string]struct{}{
	"text/html":     {},
	"text/markdown": {},
	"text/x-markdown": {},
	"text/plain":    {},
	"text/csv":      {},
	"application/rtf": {},
	"application/epub+zip": {},
	"application/xhtml+xml": {},
	"application/xml": {},
	"application/msword": {},
	"application/vnd.ms-word.document.macroenabled.12":                          {},
	"application/vnd.ms-word.template.macroenabled.12":                          {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.template":   {},
	"application/vnd.ms-excel": {},
	"application/vnd.ms-excel.sheet.binary.macroenabled.12":                     {},
	"application/vnd.ms-excel.sheet.macroenabled.12":                            {},
	"application/vnd.ms-excel.template.macroenabled.12":                         {},
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         {},
	"application/vnd.openxmlformats-officedocument.spreadsheetml.template":      {},
	"application/vnd.ms-powerpoint": {},
	"application/vnd.ms-powerpoint.presentation.macroenabled.12":                {},
	"application/vnd.ms-powerpoint.template.macroenabled.12":                    {},
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": {},
	"application/vnd.openxmlformats-officedocument.presentationml.template":     {},
	"application/vnd.oasis.opendocument.text":                  {},
	"application/vnd.oasis.opendocument.text-template":         {},
	"application/vnd.oasis.opendocument.text-master":           {},
	"application/vnd.oasis.opendocument.text-web":              {},
	"application/vnd.oasis.opendocument.spreadsheet":           {},
	"application/vnd.oasis.opendocument.spreadsheet-template":  {},
	"application/vnd.oasis.opendocument.presentation":          {},
	"application/vnd.oasis.opendocument.presentation-template": {},
	"application/vnd.oasis.opendocument.graphics":              {},
	"application/vnd.oasis.opendocument.graphics-template":     {},
	"application/vnd.apple.pages":   {},
	"application/vnd.apple.numbers": {},
	"application/vnd.apple.keynote": {},
	"application/vnd.wordperfect":   {},
	"application/vnd.visio":         {},
	"application/vnd.ms-works":      {},
	"application/x-abiword":         {},
	"image/jpeg": {},
	"image/png":  {},
	"image/tiff": {},
	"image/bmp":  {},
	"image/webp": {},
}

// ClassifyMimetype maps a media type onto its document class. Total over all
// inputs: anything outside the enumerated sets is MediaClassUnsupported.
func ClassifyMimetype(mimetype string) MediaClass {
	switch {
	case mimetype == MimetypePDF:
		return MediaClassPDF
	default:
		if _, ok := ConvertibleMimetypes[mimetype]; ok {
			return MediaClassConvertible
		}
		return MediaClassUnsupported
	}
}
