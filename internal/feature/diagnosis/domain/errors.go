// Package domain はdiagnosisフィーチャーのドメインエラーを定義します。
package domain

import "errors"

var (
	// ErrEmptyDiagnosis は生成器がテキストを1文字も返さなかった場合のエラーです。
	ErrEmptyDiagnosis = errors.New("diagnosis generator produced no text")
	// ErrGenerationFailed は生成器の呼び出しが失敗した場合のエラーです。
	ErrGenerationFailed = errors.New("diagnosis generation failed")
	// ErrDiagnosisNotCached は診断キャッシュにエントリが存在しない場合のエラーです。
	ErrDiagnosisNotCached = errors.New("diagnosis not cached")
)
