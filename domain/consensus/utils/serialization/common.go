package serialization

import (
	"encoding/binary"
	"io"

	"github.com/hybridchain/hybridd/domain/consensus/model/externalapi"
	"github.com/pkg/errors"
)

// errNoEncodingForType signifies that there's no encoding for the given type.
var errNoEncodingForType = errors.New("there's no encoding for this type")

// WriteElement writes the little endian representation of element to w.
// Byte slices are prefixed with their length as a uint64.
func WriteElement(w io.Writer, element interface{}) error {
	// Attempt to write the element based on the concrete type via fast
	// type assertions first.
	switch e := element.(type) {
	case uint8:
		_, err := w.Write([]byte{e})
		return errors.WithStack(err)

	case uint16:
		var buf [2]byte
		binary.LittleEndian.PutUint16(buf[:], e)
		_, err := w.Write(buf[:])
		return errors.WithStack(err)

	case int32:
		return WriteElement(w, uint32(e))

	case uint32:
		var buf [4]byte
		binary.LittleEndian.PutUint32(buf[:], e)
		_, err := w.Write(buf[:])
		return errors.WithStack(err)

	case int64:
		return WriteElement(w, uint64(e))

	case uint64:
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], e)
		_, err := w.Write(buf[:])
		return errors.WithStack(err)

	case bool:
		if e {
			return WriteElement(w, uint8(0x01))
		}
		return WriteElement(w, uint8(0x00))

	case []byte:
		err := WriteElement(w, uint64(len(e)))
		if err != nil {
			return err
		}
		_, err = w.Write(e)
		return errors.WithStack(err)

	case externalapi.DomainHash:
		_, err := w.Write(e.ByteSlice())
		return errors.WithStack(err)

	case *externalapi.DomainHash:
		_, err := w.Write(e.ByteSlice())
		return errors.WithStack(err)

	case externalapi.DomainTransactionID:
		_, err := w.Write(e.ByteSlice())
		return errors.WithStack(err)

	case externalapi.DomainAddress:
		_, err := w.Write(e[:])
		return errors.WithStack(err)
	}

	return errors.Wrapf(errNoEncodingForType, "couldn't find a way to write type %T", element)
}

// WriteElements writes multiple items to w. It is equivalent to multiple
// calls to WriteElement.
func WriteElements(w io.Writer, elements ...interface{}) error {
	for _, element := range elements {
		err := WriteElement(w, element)
		if err != nil {
			return err
		}
	}
	return nil
}

// ReadElement reads the next sequence of bytes from r using little endian
// depending on the concrete type of element pointed to.
func ReadElement(r io.Reader, element interface{}) error {
	switch e := element.(type) {
	case *uint8:
		var buf [1]byte
		_, err := io.ReadFull(r, buf[:])
		if err != nil {
			return errors.WithStack(err)
		}
		*e = buf[0]
		return nil

	case *uint32:
		var buf [4]byte
		_, err := io.ReadFull(r, buf[:])
		if err != nil {
			return errors.WithStack(err)
		}
		*e = binary.LittleEndian.Uint32(buf[:])
		return nil

	case *int64:
		var value uint64
		err := ReadElement(r, &value)
		if err != nil {
			return err
		}
		*e = int64(value)
		return nil

	case *uint64:
		var buf [8]byte
		_, err := io.ReadFull(r, buf[:])
		if err != nil {
			return errors.WithStack(err)
		}
		*e = binary.LittleEndian.Uint64(buf[:])
		return nil

	case *bool:
		var value uint8
		err := ReadElement(r, &value)
		if err != nil {
			return err
		}
		*e = value != 0x00
		return nil

	case *externalapi.DomainHash:
		var buf [externalapi.DomainHashSize]byte
		_, err := io.ReadFull(r, buf[:])
		if err != nil {
			return errors.WithStack(err)
		}
		*e = *externalapi.NewDomainHashFromByteArray(&buf)
		return nil
	}

	return errors.Wrapf(errNoEncodingForType, "couldn't find a way to read type %T", element)
}

// ReadElements reads multiple items from r. It is equivalent to multiple
// calls to ReadElement.
func ReadElements(r io.Reader, elements ...interface{}) error {
	for _, element := range elements {
		err := ReadElement(r, element)
		if err != nil {
			return err
		}
	}
	return nil
}
