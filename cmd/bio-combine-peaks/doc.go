// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

/*
bio-combine-peaks merges the summits of several peak files into one set of
representative summits, typically as input for motif discovery.

Inputs are MACS narrowPeak files (the summit is start + peak offset, the score
is the qValue column) or 5-column BED files of single-base summits.  Every
summit is extended by window/2 bases on each side; summits whose extended
intervals overlap or touch are clustered, and the summit with the highest
ln(1 + value) score of each cluster is printed with its original coordinates.
With -scale, scores are first standardized within each file (or over all files
with -global-scale), so that files with different value ranges compete on
equal terms.

The genome is either a chromosome sizes file (name<TAB>length), a FASTA index,
a FASTA file, a BAM file, or the name of a genome installed under one of the
-genomes-dir directories (default $GENOMES_DIR or ~/.local/share/genomes).

Sample usage:
bio-combine-peaks \
    -i ctcf_rep1.narrowPeak \
    -i ctcf_rep2.narrowPeak \
    -g hg38 \
    -w 200 > combined.bed
*/
package main
