package wire

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFramedRoundTrip(t *testing.T) {
	hdr := Header{Family: FamilyContentHash, Component: ComponentQuill}
	payload := []byte("hello proton")

	var buf bytes.Buffer
	require.NoError(t, WriteFramed(&buf, hdr, payload))

	gotHdr, gotPayload, err := ReadFramed(&buf)
	require.NoError(t, err)
	require.Equal(t, hdr, gotHdr)
	require.Equal(t, payload, gotPayload)
}

func TestReadFramedRejectsBadMagic(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{'X', 'X', 'X', 'X', Version, 0, 1, 0, 1, 0, 0, 0, 0})
	_, _, err := ReadFramed(&buf)
	require.Error(t, err)
}

func TestReadFramedRejectsTruncated(t *testing.T) {
	hdr := Header{Family: FamilyContentHash, Component: ComponentSeam}
	var buf bytes.Buffer
	require.NoError(t, WriteFramed(&buf, hdr, []byte("payload")))
	truncated := buf.Bytes()[:buf.Len()-2]
	_, _, err := ReadFramed(bytes.NewReader(truncated))
	require.ErrorIs(t, err, ErrTruncated)
}

func TestUintRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteUint16(&buf, 0xBEEF))
	require.NoError(t, WriteUint32(&buf, 0xDEADBEEF))
	require.NoError(t, WriteUint64(&buf, 0x0123456789ABCDEF))

	var u16 uint16
	var u32 uint32
	var u64 uint64
	require.NoError(t, ReadUint16(&buf, &u16))
	require.NoError(t, ReadUint32(&buf, &u32))
	require.NoError(t, ReadUint64(&buf, &u64))

	require.EqualValues(t, 0xBEEF, u16)
	require.EqualValues(t, 0xDEADBEEF, u32)
	require.EqualValues(t, 0x0123456789ABCDEF, u64)
}

func TestBytes32RoundTripAndEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteBytes32(&buf, []byte("payload")))
	require.NoError(t, WriteBytes32(&buf, nil))

	got, err := ReadBytes32(&buf)
	require.NoError(t, err)
	require.Equal(t, []byte("payload"), got)

	got, err = ReadBytes32(&buf)
	require.NoError(t, err)
	require.Equal(t, []byte{}, got)
}

func TestSizeMatchesActualEncoding(t *testing.T) {
	encode := func(w io.Writer) error {
		if err := WriteUint32(w, 42); err != nil {
			return err
		}
		return WriteBytes32(w, []byte("abc"))
	}

	size := MustSize(encode)

	var buf bytes.Buffer
	require.NoError(t, encode(&buf))
	require.Equal(t, buf.Len(), size)
}
