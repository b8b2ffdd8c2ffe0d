package item

import (
	"github.com/tinylib/msgp/msgp"
)

const itemFieldCount = 12

// MarshalMsg appends the MessagePack encoding of it to b.
func (it *Item) MarshalMsg(b []byte) ([]byte, error) {
	o := msgp.Require(b, it.Msgsize())
	o = msgp.AppendMapHeader(o, itemFieldCount)
	o = msgp.AppendString(o, "path")
	o = msgp.AppendString(o, it.Path)
	o = msgp.AppendString(o, "name")
	o = msgp.AppendString(o, it.Name)
	o = msgp.AppendString(o, "outfile")
	o = msgp.AppendString(o, it.Outfile)
	o = msgp.AppendString(o, "package")
	o = msgp.AppendString(o, it.Package)
	o = msgp.AppendString(o, "lang")
	o = msgp.AppendString(o, it.Lang)
	o = msgp.AppendString(o, "output_path")
	o = msgp.AppendString(o, it.OutputPath)
	o = msgp.AppendString(o, "bitrate")
	o = msgp.AppendUint32(o, it.Bitrate)
	o = msgp.AppendString(o, "num_samples")
	o = msgp.AppendUint64(o, it.NumSamples)
	o = msgp.AppendString(o, "input_channels")
	o = msgp.AppendUint16(o, it.InputChannels)
	o = msgp.AppendString(o, "target_channels")
	o = msgp.AppendUint16(o, it.TargetChannels)
	o = msgp.AppendString(o, "sample_rate")
	o = msgp.AppendUint32(o, it.SampleRate)
	o = msgp.AppendString(o, "modification_date")
	o = msgp.AppendString(o, it.ModificationDate)
	return o, nil
}

// UnmarshalMsg decodes an Item from bts and returns the remaining bytes.
// Unknown keys are skipped so older binaries can read newer caches.
func (it *Item) UnmarshalMsg(bts []byte) ([]byte, error) {
	fields, bts, err := msgp.ReadMapHeaderBytes(bts)
	if err != nil {
		return bts, msgp.WrapError(err)
	}
	for ; fields > 0; fields-- {
		var key []byte
		key, bts, err = msgp.ReadMapKeyZC(bts)
		if err != nil {
			return bts, msgp.WrapError(err)
		}
		switch msgp.UnsafeString(key) {
		case "path":
			it.Path, bts, err = msgp.ReadStringBytes(bts)
		case "name":
			it.Name, bts, err = msgp.ReadStringBytes(bts)
		case "outfile":
			it.Outfile, bts, err = msgp.ReadStringBytes(bts)
		case "package":
			it.Package, bts, err = msgp.ReadStringBytes(bts)
		case "lang":
			it.Lang, bts, err = msgp.ReadStringBytes(bts)
		case "output_path":
			it.OutputPath, bts, err = msgp.ReadStringBytes(bts)
		case "bitrate":
			it.Bitrate, bts, err = msgp.ReadUint32Bytes(bts)
		case "num_samples":
			it.NumSamples, bts, err = msgp.ReadUint64Bytes(bts)
		case "input_channels":
			it.InputChannels, bts, err = msgp.ReadUint16Bytes(bts)
		case "target_channels":
			it.TargetChannels, bts, err = msgp.ReadUint16Bytes(bts)
		case "sample_rate":
			it.SampleRate, bts, err = msgp.ReadUint32Bytes(bts)
		case "modification_date":
			it.ModificationDate, bts, err = msgp.ReadStringBytes(bts)
		default:
			bts, err = msgp.Skip(bts)
		}
		if err != nil {
			return bts, msgp.WrapError(err, string(key))
		}
	}
	return bts, nil
}

// Msgsize returns an upper bound on the encoded size of it.
func (it *Item) Msgsize() int {
	s := msgp.MapHeaderSize + 120
	for _, v := range []string{it.Path, it.Name, it.Outfile, it.Package, it.Lang, it.OutputPath, it.ModificationDate} {
		s += msgp.StringPrefixSize + len(v)
	}
	return s + 3*msgp.Uint32Size + msgp.Uint64Size + 2*msgp.Uint16Size
}
