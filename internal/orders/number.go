package orders

import (
	"crypto/rand"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const orderNumberPrefix = "TRV-"

var base36Charset = []byte("0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ")

// NewOrderNumber generates a human-readable order number: the prefix, a
// base36 millisecond timestamp, and a short random suffix against
// same-millisecond collisions. Uniqueness is ultimately enforced by the
// order_number index.
func NewOrderNumber() string {
	ts := strings.ToUpper(strconv.FormatInt(time.Now().UnixMilli(), 36))

	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		// fall back to nanoseconds; the unique index still protects us
		return fmt.Sprintf("%s%s%04d", orderNumberPrefix, ts, time.Now().Nanosecond()%10000)
	}
	for i, b := range suffix {
		suffix[i] = base36Charset[int(b)%len(base36Charset)]
	}
	return orderNumberPrefix + ts + string(suffix)
}
