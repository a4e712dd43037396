package number

import (
	"bytes"
	"fmt"
	"strconv"
)

// MarshalJSON encodes as a decimal string
func (d Decimal) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(d.String())), nil
}

// UnmarshalJSON accepts a decimal string or a bare json number
func (d *Decimal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*d = Decimal{}
		return nil
	}

	text := string(data)
	if len(data) > 0 && data[0] == '"' {
		s, err := strconv.Unquote(text)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidDecimal, text)
		}
		text = s
	}

	if text == "" {
		*d = Decimal{}
		return nil
	}

	v, err := FromString(text)
	if err != nil {
		return err
	}

	*d = v
	return nil
}
