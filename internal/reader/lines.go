package reader

import "bytes"

// DefaultMaxLineBytes 单行最大长度
const DefaultMaxLineBytes = 1024 * 1024

// lineSplitter bufio.SplitFunc：按 LF 切行并去掉行尾 CR
// 超过 max 的行整行丢弃（调用 onOversize），扫描继续
type lineSplitter struct {
	max        int
	skipping   bool
	onOversize func()
}

func (s *lineSplitter) split(data []byte, atEOF bool) (int, []byte, error) {
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		if s.skipping {
			s.skipping = false
			return i + 1, nil, nil
		}
		return i + 1, bytes.TrimSuffix(data[:i], []byte{'\r'}), nil
	}
	if s.skipping {
		return len(data), nil, nil
	}
	if len(data) >= s.max {
		s.skipping = true
		if s.onOversize != nil {
			s.onOversize()
		}
		return len(data), nil, nil
	}
	if atEOF && len(data) > 0 {
		return len(data), bytes.TrimSuffix(data, []byte{'\r'}), nil
	}
	return 0, nil, nil
}
