// Package domain はredirectフィーチャーのドメインエラーを定義します。
package domain

import "errors"

var (
	// ErrNoCandidates は選択可能なリダイレクト先が無い場合のエラーです。
	ErrNoCandidates = errors.New("no redirect candidates")
	// ErrTargetNotFound は指定IDのリダイレクト先が存在しない場合のエラーです。
	ErrTargetNotFound = errors.New("redirect target not found")
)
