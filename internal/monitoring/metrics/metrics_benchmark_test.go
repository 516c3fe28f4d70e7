// Licensed under the MIT License. See LICENSE file in the project root for details.

package metrics

import (
	"testing"
	"time"
)

// BenchmarkRecordArriveDepart benchmarks the non-blocking recording path
// under concurrent load, the shape Arrive/Depart actually see in a hot
// benchmark run.
func BenchmarkRecordArriveDepart(b *testing.B) {
	m := NewBufferedMetrics(10000)
	defer m.Close()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			m.RecordArrive(100 * time.Nanosecond)
			m.RecordDepart(100 * time.Nanosecond)
		}
	})
}

// BenchmarkRecordContentionEvents benchmarks the contention-counter
// recording path under a simulated high-contention workload.
func BenchmarkRecordContentionEvents(b *testing.B) {
	m := NewBufferedMetrics(10000)
	defer m.Close()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			for i := 0; i < 10; i++ {
				m.RecordRootCASFailure()
			}
			m.RecordTreeDispatchLatch()
		}
	})
}

// BenchmarkGetStats benchmarks snapshotting under a pre-populated buffer.
func BenchmarkGetStats(b *testing.B) {
	m := NewBufferedMetrics(10000)
	defer m.Close()

	for i := 0; i < 1000; i++ {
		m.RecordArrive(100 * time.Nanosecond)
		m.RecordDepart(100 * time.Nanosecond)
	}
	time.Sleep(10 * time.Millisecond)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.GetStats()
	}
}

// BenchmarkRingBufferPush benchmarks ring buffer push operations.
func BenchmarkRingBufferPush(b *testing.B) {
	rb := NewDurationRingBuffer(1000)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			rb.Push(100 * time.Nanosecond)
		}
	})
}

// BenchmarkRingBufferGetAverage benchmarks ring buffer average calculation.
func BenchmarkRingBufferGetAverage(b *testing.B) {
	rb := NewDurationRingBuffer(1000)

	for i := 0; i < 1000; i++ {
		rb.Push(time.Duration(i) * time.Nanosecond)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rb.GetAverage()
	}
}
