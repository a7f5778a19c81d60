package storage

import (
	"fmt"
	"math"
	"time"

	"github.com/arloliu/mebo"
	"github.com/arloliu/mebo/blob"
	"github.com/arloliu/mebo/format"

	"github.com/san-kum/esnlab/internal/dynamo"
)

// chunkSize bounds the points per mebo metric so that per-metric payload
// offsets stay inside the format's 16-bit range.
const chunkSize = 4096

var compressions = map[string]format.CompressionType{
	"":     format.CompressionZstd,
	"none": format.CompressionNone,
	"zstd": format.CompressionZstd,
	"s2":   format.CompressionS2,
	"lz4":  format.CompressionLZ4,
}

func parseCompression(name string) (format.CompressionType, error) {
	c, ok := compressions[name]
	if !ok {
		return 0, fmt.Errorf("unknown compression: %s", name)
	}
	return c, nil
}

// ComponentName names component k of a trajectory in a blob.
func ComponentName(k, dim int) string {
	if dim == 3 {
		return [...]string{"x", "y", "z"}[k]
	}
	return fmt.Sprintf("c%d", k)
}

func chunkName(component string, chunk int) string {
	return fmt.Sprintf("%s#%d", component, chunk)
}

// EncodeTrajectory writes one mebo metric per component and chunk.
// Timestamps are simulated time in microseconds; a trajectory without Times
// uses the step index as its time in seconds.
func EncodeTrajectory(tr *dynamo.Trajectory, compression string) ([]byte, error) {
	n, dim := tr.Len(), tr.Dim()
	if n == 0 {
		return nil, &dynamo.ShapeError{Op: "encode", Index: -1, Want: 1, Got: 0}
	}
	if err := tr.CheckDim("encode", dim); err != nil {
		return nil, err
	}
	comp, err := parseCompression(compression)
	if err != nil {
		return nil, err
	}

	enc, err := mebo.NewNumericEncoder(time.UnixMicro(0),
		blob.WithTimestampEncoding(format.TypeDelta),
		blob.WithValueEncoding(format.TypeGorilla),
		blob.WithValueCompression(comp),
	)
	if err != nil {
		return nil, err
	}

	ts := make([]int64, n)
	for i := range ts {
		t := float64(i)
		if len(tr.Times) == n {
			t = tr.Times[i]
		}
		ts[i] = int64(math.Round(t * 1e6))
	}

	for k := 0; k < dim; k++ {
		values := tr.Component(k)
		name := ComponentName(k, dim)
		for chunk, lo := 0, 0; lo < n; chunk, lo = chunk+1, lo+chunkSize {
			hi := min(lo+chunkSize, n)
			if err := enc.StartMetricName(chunkName(name, chunk), hi-lo); err != nil {
				return nil, fmt.Errorf("encode %s: %w", name, err)
			}
			if err := enc.AddDataPoints(ts[lo:hi], values[lo:hi], nil); err != nil {
				return nil, fmt.Errorf("encode %s: %w", name, err)
			}
			if err := enc.EndMetric(); err != nil {
				return nil, fmt.Errorf("encode %s: %w", name, err)
			}
		}
	}
	return enc.Finish()
}

// DecodeTrajectory reads a blob written by EncodeTrajectory.
func DecodeTrajectory(data []byte, dim int) (*dynamo.Trajectory, error) {
	dec, err := mebo.NewNumericDecoder(data)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	b, err := dec.Decode()
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	var times []float64
	components := make([][]float64, dim)
	for k := 0; k < dim; k++ {
		name := ComponentName(k, dim)
		for chunk := 0; b.LenByName(chunkName(name, chunk)) > 0; chunk++ {
			metric := chunkName(name, chunk)
			for v := range b.AllValuesByName(metric) {
				components[k] = append(components[k], v)
			}
			if k == 0 {
				for t := range b.AllTimestampsByName(metric) {
					times = append(times, float64(t)/1e6)
				}
			}
		}
		if len(components[k]) == 0 {
			return nil, fmt.Errorf("decode: component %s missing", name)
		}
		if len(components[k]) != len(components[0]) {
			return nil, &dynamo.ShapeError{Op: "decode " + name, Index: -1, Want: len(components[0]), Got: len(components[k])}
		}
	}

	tr := dynamo.NewTrajectory(len(times), dim)
	tr.Times = times
	for i, s := range tr.States {
		for k := range s {
			s[k] = components[k][i]
		}
	}
	return tr, nil
}
