package transferfunction

import (
	"image"
	"image/color"
	"image/png"
	"os"

	"golang.org/x/image/draw"

	"github.com/solarvol/voxrender/internal/rterr"
)

// DumpLUTPreview renders tf's 256-entry LUT as an RGBA PNG strip scaled
// to height rows tall, for headless debugging where no GPU context
// exists to sample the real texture. Generalizes the original's
// print_transfer_function text dump into something a human can glance at.
func DumpLUTPreview(tf *TransferFunction, path string, height int) error {
	strip := image.NewRGBA(image.Rect(0, 0, Size, 1))
	for i := 0; i < Size; i++ {
		strip.SetRGBA(i, 0, color.RGBA{
			R: to8(tf.output[i][Red]),
			G: to8(tf.output[i][Green]),
			B: to8(tf.output[i][Blue]),
			A: to8(tf.output[i][Alpha]),
		})
	}

	if height < 1 {
		height = 1
	}
	scaled := image.NewRGBA(image.Rect(0, 0, Size, height))
	draw.NearestNeighbor.Scale(scaled, scaled.Bounds(), strip, strip.Bounds(), draw.Over, nil)

	f, err := os.Create(path)
	if err != nil {
		return rterr.Wrap(rterr.InvalidConfig, err, "creating LUT preview file")
	}
	defer f.Close()

	if err := png.Encode(f, scaled); err != nil {
		return rterr.Wrap(rterr.InvalidConfig, err, "encoding LUT preview PNG")
	}
	return nil
}

func to8(v float32) uint8 {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return uint8(v*255 + 0.5)
}
