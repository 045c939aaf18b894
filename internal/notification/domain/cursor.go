package domain

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/wyfcoding/visabackoffice/pkg/errs"
)

// Cursor 键集分页游标，定位到 (created_at, id)。
// 对外编码为不透明 token，排序键固定为 (created_at DESC, id DESC)，
// 并发插入不会使已翻过的页发生偏移。
type Cursor struct {
	CreatedAt time.Time
	ID        uint
}

// Encode 将游标编码为 base64 token。
func (c Cursor) Encode() string {
	raw := fmt.Sprintf("%d:%d", c.CreatedAt.UnixNano(), c.ID)
	return base64.StdEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor 解析 base64 token，格式非法时返回 InvalidArgument。
func DecodeCursor(token string) (Cursor, error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, errs.New(errs.CodeInvalidArgument, "malformed cursor token")
	}
	parts := strings.SplitN(string(raw), ":", 2)
	if len(parts) != 2 {
		return Cursor{}, errs.New(errs.CodeInvalidArgument, "malformed cursor token")
	}
	nanos, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return Cursor{}, errs.New(errs.CodeInvalidArgument, "malformed cursor token")
	}
	id, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return Cursor{}, errs.New(errs.CodeInvalidArgument, "malformed cursor token")
	}
	return Cursor{CreatedAt: time.Unix(0, nanos), ID: uint(id)}, nil
}
