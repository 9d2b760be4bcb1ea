package pipeline

import (
	"image"

	"github.com/MeKo-Tech/meterocr/internal/detector"
	"github.com/MeKo-Tech/meterocr/internal/utils"
)

// Pairing methods reported in PairingInfo.
const (
	MethodProximity        = "proximity_matching"
	MethodInsufficientData = "insufficient_data"
)

// Messages carried by error-tagged records.
const (
	ErrMsgUnreadableImage = "unable to read image file"
	ErrMsgIncomplete      = "both a room number and a meter number are required for upload"
)

// Detection is one surviving region with its fused number.
type Detection struct {
	Class         detector.Class
	Box           image.Rectangle
	Center        utils.Point
	DetConfidence float64
	Number        string
	OCRConfidence float64
	Method        string
}

// CompositeScore ranks detections of one class when no pairing exists.
func (d Detection) CompositeScore() float64 {
	return 0.7*d.OCRConfidence + 0.3*d.DetConfidence
}

// Detections groups resolved detections by class, in model output order.
type Detections struct {
	Rooms      []Detection
	Meters     []Detection
	Decimals   []Detection
	Unresolved int // regions that passed the gates but produced no digits
}

// Total returns the number of resolved detections.
func (d Detections) Total() int {
	return len(d.Rooms) + len(d.Meters) + len(d.Decimals)
}

// Pairing is the best room/meter combination with an optional decimal.
type Pairing struct {
	Room            Detection
	Meter           Detection
	Decimal         *Detection
	Distance        float64
	DecimalDistance float64
	Score           float64
	Method          string
}

// FullMeter joins the meter digits with the decimal digit when present.
func (p Pairing) FullMeter() string {
	return joinReading(p.Meter.Number, p.Decimal)
}

func joinReading(meter string, decimal *Detection) string {
	if decimal == nil {
		return meter
	}
	return meter + "." + decimal.Number
}

// FieldReading is the externally visible value of one field. An empty Value
// means the field was not resolved.
type FieldReading struct {
	Value      string  `json:"value"      yaml:"value"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
	Method     string  `json:"method"     yaml:"method"`
}

func fieldFrom(d *Detection) FieldReading {
	if d == nil {
		return FieldReading{}
	}
	return FieldReading{Value: d.Number, Confidence: d.OCRConfidence, Method: d.Method}
}

// PairingInfo carries pairing diagnostics.
type PairingInfo struct {
	PairingMethod      string       `json:"pairing_method"               yaml:"pairing_method"`
	Distance           float64      `json:"distance"                     yaml:"distance"`
	Score              float64      `json:"score"                        yaml:"score"`
	RoomCenter         *utils.Point `json:"room_center,omitempty"        yaml:"room_center,omitempty"`
	MeterCenter        *utils.Point `json:"meter_center,omitempty"       yaml:"meter_center,omitempty"`
	TotalRoomsFound    int          `json:"total_rooms_found"            yaml:"total_rooms_found"`
	TotalMetersFound   int          `json:"total_meters_found"           yaml:"total_meters_found"`
	TotalDecimalsFound int          `json:"total_decimals_found"         yaml:"total_decimals_found"`
	UnresolvedRegions  int          `json:"unresolved_regions,omitempty" yaml:"unresolved_regions,omitempty"`
	Error              string       `json:"error,omitempty"              yaml:"error,omitempty"`
}

// ProcessingResult is the record returned for one image.
type ProcessingResult struct {
	ImagePath          string        `json:"image_path,omitempty"           yaml:"image_path,omitempty"`
	RoomNumber         *FieldReading `json:"room_number,omitempty"          yaml:"room_number,omitempty"`
	MeterNumber        *FieldReading `json:"meter_number,omitempty"         yaml:"meter_number,omitempty"`
	DecimalNumber      *FieldReading `json:"decimal_number,omitempty"       yaml:"decimal_number,omitempty"`
	FullMeter          string        `json:"full_meter,omitempty"           yaml:"full_meter,omitempty"`
	CanUpload          bool          `json:"can_upload"                     yaml:"can_upload"`
	PairingInfo        *PairingInfo  `json:"pairing_info,omitempty"         yaml:"pairing_info,omitempty"`
	ElapsedTime        float64       `json:"elapsed_time,omitempty"         yaml:"elapsed_time,omitempty"`
	ProcessedImage     string        `json:"processed_image,omitempty"      yaml:"processed_image,omitempty"`
	ProcessedImagePath string        `json:"processed_image_path,omitempty" yaml:"processed_image_path,omitempty"`
	Error              string        `json:"error,omitempty"                yaml:"error,omitempty"`
}

// ErrorResult is the record returned in place of a normal one when the input
// cannot be used.
func ErrorResult(path, msg string) *ProcessingResult {
	return &ProcessingResult{ImagePath: path, Error: msg}
}

// Failed reports whether the record is error-tagged.
func (r *ProcessingResult) Failed() bool { return r.Error != "" }
