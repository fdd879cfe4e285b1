package renderer

import (
	"testing"

	"github.com/vkngwrapper/core/v2/core1_0"
)

func testMemoryProperties() *core1_0.PhysicalDeviceMemoryProperties {
	return &core1_0.PhysicalDeviceMemoryProperties{
		MemoryTypes: []core1_0.MemoryType{
			{PropertyFlags: core1_0.MemoryPropertyDeviceLocal, HeapIndex: 0},
			{PropertyFlags: core1_0.MemoryPropertyHostVisible, HeapIndex: 1},
			{PropertyFlags: core1_0.MemoryPropertyHostVisible | core1_0.MemoryPropertyHostCoherent, HeapIndex: 1},
		},
	}
}

func TestFindMemoryTypePicksMatchingType(t *testing.T) {
	a := NewAllocator(nil, testMemoryProperties())

	index, err := a.findMemoryType(0b111, core1_0.MemoryPropertyHostVisible|core1_0.MemoryPropertyHostCoherent)
	if err != nil {
		t.Fatalf("findMemoryType: %v", err)
	}
	if index != 2 {
		t.Errorf("memory type index = %d, want 2", index)
	}
}

func TestFindMemoryTypeHonorsTypeBits(t *testing.T) {
	a := NewAllocator(nil, testMemoryProperties())

	// Type 0 is device local, but the resource only allows types 1 and 2.
	index, err := a.findMemoryType(0b110, core1_0.MemoryPropertyHostVisible)
	if err != nil {
		t.Fatalf("findMemoryType: %v", err)
	}
	if index != 1 {
		t.Errorf("memory type index = %d, want 1", index)
	}
}

func TestFindMemoryTypeNoMatch(t *testing.T) {
	a := NewAllocator(nil, testMemoryProperties())

	_, err := a.findMemoryType(0b001, core1_0.MemoryPropertyHostVisible)
	if err == nil {
		t.Fatal("expected error when no memory type matches")
	}
}

func TestMemoryUsagePropertyFlags(t *testing.T) {
	if MemoryUsageGPUOnly.propertyFlags() != core1_0.MemoryPropertyDeviceLocal {
		t.Error("GPU-only allocations must be device local")
	}
	want := core1_0.MemoryPropertyHostVisible | core1_0.MemoryPropertyHostCoherent
	if MemoryUsageCPUToGPU.propertyFlags() != want {
		t.Error("CPU-to-GPU allocations must be host visible and coherent")
	}
}
