package audio

import "testing"

func TestEncodeDecodeWAV(t *testing.T) {
	t.Parallel()

	samples := []int16{0, 1, -1, 32767, -32768, 1234}
	data, err := EncodeWAV(samples, 44100)
	if err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}
	if string(data[:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Fatalf("missing RIFF/WAVE header: %q", data[:12])
	}

	pcm, err := DecodeWAV(data)
	if err != nil {
		t.Fatalf("DecodeWAV: %v", err)
	}
	if pcm.SampleRate != 44100 {
		t.Fatalf("SampleRate = %d", pcm.SampleRate)
	}
	for i, s := range samples {
		if pcm.Samples[i] != s {
			t.Fatalf("sample %d = %d, want %d", i, pcm.Samples[i], s)
		}
	}
}

func TestDecodeWAVRejectsGarbage(t *testing.T) {
	t.Parallel()

	if _, err := DecodeWAV([]byte("not a wav file at all")); err == nil {
		t.Fatal("expected error")
	}
}

func TestPCMFloat32(t *testing.T) {
	t.Parallel()

	f := PCM{Samples: []int16{0, 16384, -32768}}.Float32()
	if f[0] != 0 || f[1] != 0.5 || f[2] != -1 {
		t.Fatalf("Float32() = %v", f)
	}
}
