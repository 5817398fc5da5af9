// Package storage persists downloaded media under <base>/<username>/<id>.<format>.
//
// The Manager keeps no on-disk state besides the media files themselves:
//   - EnsureDir creates destination directories idempotently
//   - HasFile re-lists the directory on every call, so it is authoritative across runs
//   - Save streams into a .part file and renames it into place on success
//   - Lock gives callers a per-filename critical section around check and write
//
// Usage:
//
//	manager, err := storage.NewManager("downloaded_videos")
//	dir := manager.UserDir("alice")
//	unlock := manager.Lock(dir, "123.mp4")
//	defer unlock()
//	if ok, _ := manager.HasFile(dir, "123.mp4"); !ok {
//	    _, err = manager.Save(dir, "123.mp4", body)
//	}
package storage
