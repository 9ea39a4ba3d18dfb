// Copyright © 2017 Will Rowe <will.rowe@stfc.ac.uk>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package cmd

import (
	"bufio"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/mholt/archiver"
	"github.com/spf13/cobra"
	"github.com/will-rowe/taxbench/src/taxonomy"
	"github.com/will-rowe/taxbench/src/version"
)

// url to download the NCBI taxonomy from, the md5 sum is at the same url with .md5 appended
var taxdumpURL = "https://ftp.ncbi.nlm.nih.gov/pub/taxonomy/taxdump.tar.gz"

// the command line arguments
var (
	getURL   *string // the taxdump tarball to download
	dbDir    *string // the location to store the taxonomy
	getCache *bool   // write the taxonomy cache after unpacking
)

// getCmd represents the get command
var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Download the NCBI taxonomy",
	Long:  `Download the NCBI taxonomy (taxdump)`,
	Run: func(cmd *cobra.Command, args []string) {
		runGet()
	},
}

func init() {
	RootCmd.AddCommand(getCmd)
	getURL = getCmd.Flags().String("url", taxdumpURL, "url of the taxdump tarball (the md5 sum must be at <url>.md5)")
	dbDir = getCmd.PersistentFlags().StringP("out", "o", "./taxdump", "directory to save the taxonomy to")
	getCache = getCmd.Flags().Bool("cache", false, "write a taxonomy cache file after unpacking (faster to load)")
}

/*
A function to check user supplied parameters
*/
func getParamCheck() error {
	if !strings.HasSuffix(*getURL, ".tar.gz") {
		return fmt.Errorf("url does not point to a .tar.gz file: %v", *getURL)
	}
	// setup the dbDir
	if _, err := os.Stat(*dbDir); os.IsNotExist(err) {
		if err := os.MkdirAll(*dbDir, 0700); err != nil {
			return fmt.Errorf("directory creation failed: %v\n\ncan't create specified output directory for the taxonomy", *dbDir)
		}
	}
	return nil
}

/*
A function to download a file
*/
func DownloadFile(savePath string, url string) error {
	outFile, err := os.Create(savePath)
	if err != nil {
		return err
	}
	defer outFile.Close()
	response, err := http.Get(url)
	if err != nil {
		return err
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("could not download %v: %v", url, response.Status)
	}
	_, err = io.Copy(outFile, response.Body)
	return err
}

/*
A function to read the expected md5 from an md5sum file ("<md5>  <filename>")
*/
func readMD5(md5Path string) (string, error) {
	fh, err := os.Open(md5Path)
	if err != nil {
		return "", err
	}
	defer fh.Close()
	scanner := bufio.NewScanner(fh)
	if scanner.Scan() {
		if fields := strings.Fields(scanner.Text()); len(fields) != 0 && len(fields[0]) == 32 {
			return strings.ToLower(fields[0]), nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", fmt.Errorf("no md5 sum found in %v", md5Path)
}

/*
A function to check the md5 of a file
*/
func checkMD5(savePath, expected string) error {
	file, err := os.Open(savePath)
	if err != nil {
		return err
	}
	defer file.Close()
	hash := md5.New()
	if _, err := io.Copy(hash, file); err != nil {
		return err
	}
	if got := hex.EncodeToString(hash.Sum(nil)); got != expected {
		return fmt.Errorf("md5sum for downloaded tarball did not match record (%v != %v)", got, expected)
	}
	return nil
}

/*
The main function for the get sub-command
*/
func runGet() {
	if err := getParamCheck(); err != nil {
		fmt.Println("could not run taxbench get...")
		fmt.Println(err)
		os.Exit(1)
	}

	// download the taxdump and its md5
	fmt.Printf("downloading the NCBI taxonomy from %v...\n", *getURL)
	dbSave := filepath.Join(*dbDir, filepath.Base(*getURL))
	md5Save := dbSave + ".md5"
	if err := DownloadFile(dbSave, *getURL); err != nil {
		fmt.Println("could not download the tarball")
		fmt.Println(err)
		os.Exit(1)
	}
	if err := DownloadFile(md5Save, *getURL+".md5"); err != nil {
		fmt.Println("could not download the md5 sum")
		fmt.Println(err)
		os.Exit(1)
	}

	// check and unpack the tarball
	fmt.Println("unpacking...")
	expected, err := readMD5(md5Save)
	if err == nil {
		err = checkMD5(dbSave, expected)
	}
	if err != nil {
		fmt.Println("could not verify the tarball")
		fmt.Println(err)
		os.Exit(1)
	}
	tgz := archiver.NewTarGz()
	tgz.OverwriteExisting = true
	if err := tgz.Unarchive(dbSave, *dbDir); err != nil {
		fmt.Println("could not unpack the tarball")
		fmt.Println(err)
		os.Exit(1)
	}

	// finished
	for _, file := range []string{dbSave, md5Save} {
		if err := os.Remove(file); err != nil {
			fmt.Println("could not cleanup...")
			fmt.Println(err)
			os.Exit(1)
		}
	}
	if *getCache {
		fmt.Println("writing the taxonomy cache...")
		tax, err := taxonomy.LoadNodes(filepath.Join(*dbDir, taxonomy.NodesFile))
		if err == nil {
			err = tax.Dump(filepath.Join(*dbDir, taxonomy.CacheFile), version.GetVersion())
		}
		if err != nil {
			fmt.Println("could not write the taxonomy cache")
			fmt.Println(err)
			os.Exit(1)
		}
	}
	fmt.Printf("taxonomy saved to: %v\n", *dbDir)
	fmt.Printf("now run `taxbench resolve -t %v` or `taxbench report -t %v`\n", *dbDir, *dbDir)
}
