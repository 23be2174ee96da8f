package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMarshalBtlRoundTrip(t *testing.T) {
	in := &Btl{Bus: 1, Target: 2, Lun: 0x1234}
	buf, err := Marshal(in)
	require.NoError(t, err)
	require.Len(t, buf, SizeOfBtl)

	out := &Btl{}
	require.NoError(t, Unmarshal(buf, out))
	require.Equal(t, in, out)
}

func TestMarshalStorageUnitParamsRoundTrip(t *testing.T) {
	in := &StorageUnitParams{
		GuidHi:                  0x0102030405060708,
		GuidLo:                  0x1112131415161718,
		BlockCount:              8,
		BlockLength:             512,
		MaxTransferLength:       1 << 20,
		MaxUnmapDescriptorCount: 256,
		WriteProtected:          true,
		UnmapSupported:          true,
	}
	copy(in.ProductId[:], "go-sud          ")
	copy(in.ProductRevisionLevel[:], "1.0 ")

	buf, err := Marshal(in)
	require.NoError(t, err)
	require.Len(t, buf, SizeOfStorageUnitParams)

	out := &StorageUnitParams{}
	require.NoError(t, Unmarshal(buf, out))
	require.Equal(t, in, out)
	require.False(t, out.CacheSupported)
	require.False(t, out.EjectDisabled)
}

func TestMarshalRequestRoundTripRead(t *testing.T) {
	in := &Request{
		Hint: 42,
		Kind: KindRead,
	}
	in.Read.BlockAddress = 7
	in.Read.Length = 2
	in.Read.ForceUnitAccess = 1

	buf, err := Marshal(in)
	require.NoError(t, err)
	require.Len(t, buf, SizeOfRequest)

	out := &Request{}
	require.NoError(t, Unmarshal(buf, out))
	require.Equal(t, in.Hint, out.Hint)
	require.Equal(t, in.Kind, out.Kind)
	require.Equal(t, in.Read, out.Read)
}

func TestMarshalRequestRoundTripUnmap(t *testing.T) {
	in := &Request{Hint: 99, Kind: KindUnmap}
	in.Unmap.Count = 2
	in.Unmap.Descriptors[0] = UnmapDescriptor{BlockAddress: 10, BlockCount: 5}
	in.Unmap.Descriptors[1] = UnmapDescriptor{BlockAddress: 20, BlockCount: 1}

	buf, err := Marshal(in)
	require.NoError(t, err)

	out := &Request{}
	require.NoError(t, Unmarshal(buf, out))
	require.Equal(t, uint32(2), out.Unmap.Count)
	require.Equal(t, in.Unmap.Descriptors[0], out.Unmap.Descriptors[0])
	require.Equal(t, in.Unmap.Descriptors[1], out.Unmap.Descriptors[1])
}

func TestMarshalResponseRoundTrip(t *testing.T) {
	in := &Response{Hint: 7, Kind: KindWrite}
	in.Status.ScsiStatus = ScsiStatusCheckCondition
	in.Status.SenseData[0] = SenseResponseCodeCurrent
	in.Status.SenseData[2] = SenseKeyMediumError
	in.Status.SenseData[12] = AscUnrecoveredReadError

	buf, err := Marshal(in)
	require.NoError(t, err)
	require.Len(t, buf, SizeOfResponse)

	out := &Response{}
	require.NoError(t, Unmarshal(buf, out))
	require.Equal(t, in, out)
}

func TestUnmarshalInsufficientData(t *testing.T) {
	err := Unmarshal([]byte{1, 2, 3}, &Btl{})
	require.ErrorIs(t, err, ErrInsufficientData)
}

func TestMarshalUnsupportedType(t *testing.T) {
	_, err := Marshal(&struct{}{})
	require.ErrorIs(t, err, ErrUnsupportedType)
}
