package cost

import (
	"bytes"
	"encoding/json"
	"math"
)

// Estimate is a USD amount that may be unknown. Unknown encodes as JSON null.
type Estimate float64

func (e Estimate) Known() bool { return !math.IsNaN(float64(e)) && !math.IsInf(float64(e), 0) }

func (e Estimate) MarshalJSON() ([]byte, error) {
	if !e.Known() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(e))
}

func (e *Estimate) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*e = Estimate(math.NaN())
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*e = Estimate(v)
	return nil
}
