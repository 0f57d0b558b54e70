package files

import (
	"archive/zip"
	"bufio"
	"io"
	"os"
	"path/filepath"
)

func IsValidLocation(location string) error {
	if _, err := os.Stat(location); err != nil {
		return err
	}

	return nil
}

// EnsureLocation creates location if it doesn't exist yet.
func EnsureLocation(location string) error {
	if err := os.MkdirAll(location, os.ModePerm); err != nil {
		return err
	}

	return IsValidLocation(location)
}

// CreateArchive creates a zip archive named zipPath holding filePaths under
// their base names. An existing archive is replaced.
func CreateArchive(zipPath string, filePaths []string) error {
	err := os.MkdirAll(filepath.Dir(zipPath), os.ModePerm)
	if err != nil {
		return err
	}

	zipFile, err := os.Create(zipPath)
	if err != nil {
		return err
	}
	defer zipFile.Close()

	writeBuf := bufio.NewWriter(zipFile)
	zipWriter := zip.NewWriter(writeBuf)

	for _, p := range filePaths {
		if err := addFileToZip(zipWriter, p, filepath.Base(p)); err != nil {
			zipWriter.Close()
			return err
		}
	}

	if err := zipWriter.Close(); err != nil {
		return err
	}

	return writeBuf.Flush()
}

// addFileToZip adds a single file to the zip archive
func addFileToZip(zipWriter *zip.Writer, filePath, fileName string) error {
	fileToZip, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer fileToZip.Close()

	writer, err := zipWriter.Create(fileName)
	if err != nil {
		return err
	}

	readerBuf := bufio.NewReader(fileToZip)

	_, err = io.Copy(writer, readerBuf)
	return err
}
