package storage_test

import (
	"bytes"
	"image"
	"io"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/paylink/internal"
	"github.com/frahmantamala/paylink/internal/storage"
)

var _ = Describe("PrepareImage", func() {
	limits := storage.Limits{MaxBytes: 1 << 20, MaxDimension: 64}

	It("passes small images through with a sniffed content type", func() {
		data := pngBytes(10, 10)
		out, err := storage.PrepareImage("proof", &storage.File{Filename: "p.bin", ContentType: "application/octet-stream", Body: bytes.NewReader(data)}, limits)
		Expect(err).NotTo(HaveOccurred())
		Expect(out.ContentType).To(Equal("image/png"))
		Expect(out.Size).To(Equal(int64(len(data))))
		Expect(out.Filename).To(Equal("p.bin"))
	})

	It("downscales images larger than the max dimension", func() {
		out, err := storage.PrepareImage("qris", &storage.File{Filename: "q.png", Body: bytes.NewReader(pngBytes(256, 128))}, limits)
		Expect(err).NotTo(HaveOccurred())

		data, err := io.ReadAll(out.Body)
		Expect(err).NotTo(HaveOccurred())
		cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
		Expect(err).NotTo(HaveOccurred())
		Expect(format).To(Equal("png"))
		Expect(cfg.Width).To(Equal(64))
		Expect(cfg.Height).To(Equal(32))
	})

	It("rejects files that are not images", func() {
		_, err := storage.PrepareImage("proof", &storage.File{Filename: "x.png", Body: bytes.NewReader([]byte("%PDF-1.4 not an image"))}, limits)
		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		details := appErr.Details.(internal.ValidationErrors)
		Expect(details.Errors[0].Code).To(Equal(string(internal.ErrCodeInvalidFileType)))
		Expect(details.Errors[0].Field).To(Equal("proof"))
	})

	It("rejects files over the size limit", func() {
		_, err := storage.PrepareImage("proof", &storage.File{Filename: "x.png", Body: bytes.NewReader(pngBytes(10, 10))}, storage.Limits{MaxBytes: 16})
		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Details.(internal.ValidationErrors).Errors[0].Code).To(Equal(string(internal.ErrCodeFileTooLarge)))
	})

	It("rejects empty files", func() {
		_, err := storage.PrepareImage("proof", &storage.File{Filename: "x.png", Body: bytes.NewReader(nil)}, limits)
		Expect(err).To(HaveOccurred())
	})
})
