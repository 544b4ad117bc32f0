package fcdict_test

import (
	"bytes"
	"fmt"

	"github.com/bsm/fcdict"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("serialization", func() {
	var subject *fcdict.Dict

	BeforeEach(func() {
		subject = mustBuild(toyKeys, 4)
	})

	It("should write exactly SizeInBytes bytes", func() {
		buf := new(bytes.Buffer)
		n, err := subject.WriteTo(buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(int64(subject.SizeInBytes())))
		Expect(buf.Len()).To(Equal(subject.SizeInBytes()))
	})

	It("should write deterministically", func() {
		b1, b2 := new(bytes.Buffer), new(bytes.Buffer)
		_, err := subject.WriteTo(b1)
		Expect(err).NotTo(HaveOccurred())
		_, err = mustBuild(toyKeys, 4).WriteTo(b2)
		Expect(err).NotTo(HaveOccurred())
		Expect(b1.Bytes()).To(Equal(b2.Bytes()))
	})

	It("should round-trip", func() {
		buf := new(bytes.Buffer)
		_, err := subject.WriteTo(buf)
		Expect(err).NotTo(HaveOccurred())

		dict, err := fcdict.ReadDict(bytes.NewReader(buf.Bytes()))
		Expect(err).NotTo(HaveOccurred())
		Expect(dict.Len()).To(Equal(subject.Len()))
		Expect(dict.BucketSize()).To(Equal(subject.BucketSize()))
		Expect(dict.SizeInBytes()).To(Equal(subject.SizeInBytes()))

		indices, keys := drain(dict.Iter())
		Expect(indices).To(HaveLen(10))
		Expect(keys).To(Equal([]string{
			"deal", "idea", "ideal", "ideas", "ideology",
			"tea", "techie", "technology", "tie", "trie",
		}))

		rt := new(bytes.Buffer)
		_, err = dict.WriteTo(rt)
		Expect(err).NotTo(HaveOccurred())
		Expect(rt.Bytes()).To(Equal(buf.Bytes()))
	})

	It("should round-trip empty and random dictionaries", func() {
		for _, dict := range []*fcdict.Dict{
			mustBuild(nil, 8),
			mustBuild(byteKeys("solo"), 4),
			mustBuild(seedRandomKeys(10000, 8), 8),
		} {
			buf := new(bytes.Buffer)
			n, err := dict.WriteTo(buf)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(int64(dict.SizeInBytes())))

			other, err := fcdict.ReadDict(bytes.NewReader(buf.Bytes()))
			Expect(err).NotTo(HaveOccurred())
			Expect(other.Len()).To(Equal(dict.Len()))

			i1, k1 := drain(dict.Iter())
			i2, k2 := drain(other.Iter())
			Expect(i2).To(Equal(i1))
			Expect(k2).To(Equal(k1))
		}
	})

	It("should reject bad magic", func() {
		buf := new(bytes.Buffer)
		_, err := subject.WriteTo(buf)
		Expect(err).NotTo(HaveOccurred())

		raw := buf.Bytes()
		raw[0]++
		_, err = fcdict.ReadDict(bytes.NewReader(raw))
		Expect(err).To(MatchError(fcdict.ErrCorrupted))
	})

	It("should reject corrupt fields", func() {
		buf := new(bytes.Buffer)
		_, err := subject.WriteTo(buf)
		Expect(err).NotTo(HaveOccurred())
		raw := buf.Bytes()
		numPtrBytes := subject.NumBuckets() + 1 // pointer width is 1 for the toy store

		// bucket size not a power of two
		bad := append([]byte(nil), raw...)
		bad[16] = 3
		_, err = fcdict.ReadDict(bytes.NewReader(bad))
		Expect(err).To(MatchError(fcdict.ErrCorrupted))

		// pointer width out of range
		bad = append([]byte(nil), raw...)
		bad[len(bad)-numPtrBytes-1] = 0
		_, err = fcdict.ReadDict(bytes.NewReader(bad))
		Expect(err).To(MatchError(fcdict.ErrCorrupted))

		// stream not terminated
		bad = append([]byte(nil), raw...)
		streamLen := len(raw) - 32 - 8 - 1 - numPtrBytes
		bad[32+streamLen-1] = 'x'
		_, err = fcdict.ReadDict(bytes.NewReader(bad))
		Expect(err).To(MatchError(fcdict.ErrCorrupted))
	})

	It("should reject truncated input", func() {
		buf := new(bytes.Buffer)
		_, err := subject.WriteTo(buf)
		Expect(err).NotTo(HaveOccurred())
		raw := buf.Bytes()

		for _, n := range []int{0, 7, 16, 31, 40, len(raw) - 1} {
			_, err = fcdict.ReadDict(bytes.NewReader(raw[:n]))
			Expect(err).To(HaveOccurred(), "for %d bytes", n)
		}
	})

	Describe("compressed container", func() {
		It("should round-trip", func() {
			for _, codec := range []fcdict.Compression{fcdict.SnappyCompression, fcdict.NoCompression} {
				buf := new(bytes.Buffer)
				n, err := subject.WriteCompressedTo(buf, codec)
				Expect(err).NotTo(HaveOccurred())
				Expect(n).To(Equal(int64(buf.Len())))

				dict, err := fcdict.ReadCompressed(bytes.NewReader(buf.Bytes()))
				Expect(err).NotTo(HaveOccurred())

				indices, _ := drain(dict.Iter())
				Expect(indices).To(HaveLen(10))
			}
		})

		It("should compress repetitive stores", func() {
			keys := make([][]byte, 0, 4096)
			for i := 0; i < 4096; i++ {
				keys = append(keys, []byte(fmt.Sprintf("user:%08d:profile", i)))
			}
			dict := mustBuild(keys, 8)

			buf := new(bytes.Buffer)
			_, err := dict.WriteCompressedTo(buf, fcdict.SnappyCompression)
			Expect(err).NotTo(HaveOccurred())
			Expect(buf.Len()).To(BeNumerically("<", dict.SizeInBytes()))

			other, err := fcdict.ReadCompressed(bytes.NewReader(buf.Bytes()))
			Expect(err).NotTo(HaveOccurred())
			Expect(other.Len()).To(Equal(4096))
		})

		It("should write deterministically", func() {
			b1, b2 := new(bytes.Buffer), new(bytes.Buffer)
			_, err := subject.WriteCompressedTo(b1, fcdict.SnappyCompression)
			Expect(err).NotTo(HaveOccurred())
			_, err = mustBuild(toyKeys, 4).WriteCompressedTo(b2, fcdict.SnappyCompression)
			Expect(err).NotTo(HaveOccurred())
			Expect(b1.Bytes()).To(Equal(b2.Bytes()))
		})

		It("should reject bad codecs", func() {
			buf := new(bytes.Buffer)
			_, err := subject.WriteCompressedTo(buf, fcdict.Compression(9))
			Expect(err).To(MatchError(`fcdict: bad compression codec`))
		})

		It("should reject plain stores", func() {
			buf := new(bytes.Buffer)
			_, err := subject.WriteTo(buf)
			Expect(err).NotTo(HaveOccurred())

			_, err = fcdict.ReadCompressed(bytes.NewReader(buf.Bytes()))
			Expect(err).To(MatchError(fcdict.ErrCorrupted))
		})
	})
})
