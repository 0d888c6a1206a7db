package logging

import (
	"time"
)

// Common field constructors
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

func Uint64(key string, value uint64) Field {
	return Field{Key: key, Value: value}
}

func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Domain field helpers

func Component(name string) Field {
	return String("component", name)
}

func Network(name string) Field {
	return String("network", name)
}

func Ensemble(name string) Field {
	return String("ensemble", name)
}

func ProbeName(name string) Field {
	return String("probe", name)
}

func Neurons(n int) Field {
	return Int("neurons", n)
}

func Dimensions(d int) Field {
	return Int("dimensions", d)
}

func SimTime(t float64) Field {
	return Float64("sim_time", t)
}

func Steps(n uint64) Field {
	return Uint64("steps", n)
}

func Seed(s int64) Field {
	return Int64("seed", s)
}

func Latency(d time.Duration) Field {
	return Duration("latency", d)
}

func Count(n int) Field {
	return Int("count", n)
}

func Path(p string) Field {
	return String("path", p)
}
