package pipeline

import (
	"math"
)

// scoreEpsilon is the tolerance under which two pairing scores count as equal.
const scoreEpsilon = 1e-9

// PairingConfig holds the geometric constants of the pairing engine.
type PairingConfig struct {
	ProximityRange        float64 // distance at which the proximity score reaches zero
	DecimalRadius         float64 // a decimal attaches to a paired meter strictly inside this radius
	FallbackDecimalRadius float64 // radius used for unpaired meters
}

// DefaultPairingConfig returns the standard pairing constants.
func DefaultPairingConfig() PairingConfig {
	return PairingConfig{
		ProximityRange:        1000,
		DecimalRadius:         200,
		FallbackDecimalRadius: 600,
	}
}

// ProximityScore maps a center distance to [0,1].
func (c PairingConfig) ProximityScore(distance float64) float64 {
	if c.ProximityRange <= 0 {
		return 0
	}
	return math.Max(0, c.ProximityRange-distance) / c.ProximityRange
}

// PairScore is the score of one room/meter combination before any decimal bonus.
func (c PairingConfig) PairScore(room, meter Detection, distance float64) float64 {
	roomSub := 0.3*room.OCRConfidence + 0.2*room.DetConfidence
	meterSub := 0.3*meter.OCRConfidence + 0.2*meter.DetConfidence
	return 0.4*c.ProximityScore(distance) + roomSub + meterSub
}

// FindBestPairing scores every room/meter combination and returns the best.
// It reports false when either list is empty. Equal scores prefer the smaller
// room-meter distance, then the earlier (room, meter) index pair.
func FindBestPairing(dets Detections, cfg PairingConfig) (Pairing, bool) {
	if len(dets.Rooms) == 0 || len(dets.Meters) == 0 {
		return Pairing{}, false
	}

	var best Pairing
	found := false
	for _, room := range dets.Rooms {
		for _, meter := range dets.Meters {
			distance := room.Center.Distance(meter.Center)
			cand := Pairing{
				Room:     room,
				Meter:    meter,
				Distance: distance,
				Score:    cfg.PairScore(room, meter, distance),
				Method:   MethodProximity,
			}
			if dec, d, ok := nearestDecimal(meter, dets.Decimals); ok && d < cfg.DecimalRadius {
				cand.Decimal = &dec
				cand.DecimalDistance = d
				cand.Score += 0.1 * dec.OCRConfidence
			}
			if !found || better(cand, best) {
				best = cand
				found = true
			}
		}
	}
	return best, found
}

func better(cand, best Pairing) bool {
	if cand.Score > best.Score+scoreEpsilon {
		return true
	}
	if cand.Score < best.Score-scoreEpsilon {
		return false
	}
	return cand.Distance < best.Distance
}

// nearestDecimal returns the decimal closest to meter. Ties keep the earlier one.
func nearestDecimal(meter Detection, decimals []Detection) (Detection, float64, bool) {
	var nearest Detection
	minDist := math.Inf(1)
	found := false
	for _, dec := range decimals {
		d := meter.Center.Distance(dec.Center)
		if d < minDist {
			minDist = d
			nearest = dec
			found = true
		}
	}
	return nearest, minDist, found
}

// bestByComposite returns the detection with the highest composite score.
// Ties keep the earlier one.
func bestByComposite(dets []Detection) (Detection, bool) {
	if len(dets) == 0 {
		return Detection{}, false
	}
	best := dets[0]
	for _, d := range dets[1:] {
		if d.CompositeScore() > best.CompositeScore() {
			best = d
		}
	}
	return best, true
}

// Readings is the set of detections reported and drawn for one image.
type Readings struct {
	Room    *Detection
	Meter   *Detection
	Decimal *Detection
}

// SelectReadings picks what to report: the pairing when there is one,
// otherwise the best detection per class with the meter's nearest decimal
// inside the fallback radius. Without any meter the best decimal stands alone.
func SelectReadings(pairing *Pairing, dets Detections, cfg PairingConfig) Readings {
	if pairing != nil {
		room, meter := pairing.Room, pairing.Meter
		return Readings{Room: &room, Meter: &meter, Decimal: pairing.Decimal}
	}

	var r Readings
	if room, ok := bestByComposite(dets.Rooms); ok {
		r.Room = &room
	}
	if meter, ok := bestByComposite(dets.Meters); ok {
		r.Meter = &meter
		if dec, d, ok := nearestDecimal(meter, dets.Decimals); ok && d < cfg.FallbackDecimalRadius {
			r.Decimal = &dec
		}
	} else if dec, ok := bestByComposite(dets.Decimals); ok {
		r.Decimal = &dec
	}
	return r
}

// FullMeter joins the meter digits with the decimal digit. Without a meter it is empty.
func (r Readings) FullMeter() string {
	if r.Meter == nil {
		return ""
	}
	return joinReading(r.Meter.Number, r.Decimal)
}
