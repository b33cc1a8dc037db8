package chkem_test

import (
	"testing"

	"github.com/pzverkov/quantum-envelope/pkg/chkem"
)

func BenchmarkCHKEMKeyGeneration(b *testing.B) {
	k := chkem.New()
	b.ReportAllocs()
	for b.Loop() {
		if _, err := k.Keypair(nil); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkCHKEMEncapsulation(b *testing.B) {
	k := chkem.New()
	kp, err := k.Keypair(nil)
	if err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	for b.Loop() {
		if _, _, err := k.Encapsulate(kp.PublicKey, nil); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkCHKEMDecapsulation(b *testing.B) {
	k := chkem.New()
	kp, err := k.Keypair(nil)
	if err != nil {
		b.Fatal(err)
	}
	ct, _, err := k.Encapsulate(kp.PublicKey, nil)
	if err != nil {
		b.Fatal(err)
	}

	for b.Loop() {
		if _, err := k.Decapsulate(kp.SecretKey, ct); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkCHKEMEncapsulationParallel(b *testing.B) {
	k := chkem.New()
	kp, err := k.Keypair(nil)
	if err != nil {
		b.Fatal(err)
	}

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _, _ = k.Encapsulate(kp.PublicKey, nil)
		}
	})
}
