package renderer

import "testing"

func TestAlignedSize(t *testing.T) {
	cases := []struct {
		name      string
		size      int
		alignment int
		want      int
	}{
		{"rounds up to alignment", 104, 256, 256},
		{"exact multiple unchanged", 256, 256, 256},
		{"one past multiple rounds to next", 257, 256, 512},
		{"zero size", 0, 256, 0},
		{"zero alignment passes through", 104, 0, 104},
		{"alignment one", 104, 1, 104},
		{"small alignment", 100, 64, 128},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := AlignedSize(tc.size, tc.alignment)
			if got != tc.want {
				t.Errorf("AlignedSize(%d, %d) = %d, want %d", tc.size, tc.alignment, got, tc.want)
			}
		})
	}
}

func TestAlignedSizeIdempotent(t *testing.T) {
	for _, alignment := range []int{0, 1, 64, 256} {
		for size := 0; size <= 1024; size += 13 {
			once := AlignedSize(size, alignment)
			twice := AlignedSize(once, alignment)
			if once != twice {
				t.Fatalf("AlignedSize(%d, %d): not idempotent, %d then %d", size, alignment, once, twice)
			}
			if once < size {
				t.Fatalf("AlignedSize(%d, %d) = %d shrank the size", size, alignment, once)
			}
		}
	}
}

func TestSceneOffsetsStayInsideBuffer(t *testing.T) {
	for _, overlap := range []int{1, 2, 3} {
		e := &Engine{
			frames:      make([]FrameSlot, overlap),
			sceneStride: AlignedSize(sceneDataSize, 256),
		}
		bufferSize := overlap * e.sceneStride

		for slot := 0; slot < overlap; slot++ {
			offset := e.sceneOffset(slot)
			if offset%256 != 0 {
				t.Errorf("overlap %d slot %d: offset %d not aligned", overlap, slot, offset)
			}
			if offset+sceneDataSize > bufferSize {
				t.Errorf("overlap %d slot %d: offset %d + scene block %d exceeds buffer %d",
					overlap, slot, offset, sceneDataSize, bufferSize)
			}
		}
	}
}

func TestSceneOffsetsDistinctPerSlot(t *testing.T) {
	e := &Engine{
		frames:      make([]FrameSlot, 2),
		sceneStride: AlignedSize(sceneDataSize, 256),
	}
	if e.sceneOffset(0) == e.sceneOffset(1) {
		t.Error("both slots share one scene block")
	}
}
