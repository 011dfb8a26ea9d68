// Package registry реализует Project Registry (§4.9): карту
// имя-проекта → Project в памяти плюс единственный указатель активного
// проекта, с атомарной персистентностью метаданных и восстановлением
// при старте по самому свежему файлу метаданных на диске.
package registry
