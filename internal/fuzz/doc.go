// Package fuzztests houses Go fuzz harnesses that exercise the analysis
// pipeline (source -> lexer -> preprocessor -> tree -> symbols) and the
// tweaks running on top of it. The goal is to catch panics, hangs and
// malformed edits on arbitrary inputs.
//
// Назначение: прогонять произвольные байты через лексер, препроцессор,
// парсер и add-using, проверяя инварианты дерева и применимость правок.
//
// Не делает: генерацию корпусов, запись файлов, выполнение CLI.
//
// Зависимости: internal/source, internal/lexer, internal/pp, internal/ast,
// internal/symbols, internal/driver, internal/testkit.
package fuzztests
