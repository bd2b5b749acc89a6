package downloader

import "io"

// progressWriter reports the running total after every write.
type progressWriter struct {
	w     io.Writer
	total int64
	fn    func(done int64)
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n, err := pw.w.Write(p)
	pw.total += int64(n)
	if n > 0 && pw.fn != nil {
		pw.fn(pw.total)
	}
	return n, err
}

func copyWithProgress(dst io.Writer, src io.Reader, progress func(done int64)) (int64, error) {
	pw := &progressWriter{w: dst, fn: progress}
	buf := make([]byte, 32*1024)
	_, err := io.CopyBuffer(pw, src, buf)
	return pw.total, err
}
