package kafka

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Canal 变更事件类型
const (
	INSERT = "INSERT"
	UPDATE = "UPDATE"
	DELETE = "DELETE"
)

// 推送正文截断长度
const bodyLimit = 50

// StrToUint64 Canal 行字段统一按字符串下发，兼容数值类型
func StrToUint64(v interface{}) uint64 {
	switch val := v.(type) {
	case string:
		n, _ := strconv.ParseUint(val, 10, 64)
		return n
	case float64:
		return uint64(val)
	case json.Number:
		n, _ := strconv.ParseUint(val.String(), 10, 64)
		return n
	default:
		return 0
	}
}

func StrToString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case nil:
		return ""
	default:
		return fmt.Sprint(val)
	}
}

// Truncate 按 rune 截断，避免切碎多字节字符
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}

// ParseMembers 解析成员快照列，兼容 JSON 数组与逗号分隔两种格式
func ParseMembers(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var arr []interface{}
	if err := json.Unmarshal([]byte(raw), &arr); err == nil {
		members := make([]string, 0, len(arr))
		for _, v := range arr {
			if s := StrToString(v); s != "" {
				members = append(members, s)
			}
		}
		return members
	}

	parts := strings.Split(raw, ",")
	members := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			members = append(members, s)
		}
	}
	return members
}
