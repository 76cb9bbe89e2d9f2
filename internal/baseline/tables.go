package baseline

// Tuning tables indexed by QP. Entries below the minimum QP are unused.

// roundInter is the quantizer rounding offset for inter blocks, in 1/65536.
var roundInter = [52]uint16{
	11665, 11665, 11665, 11665, 11665, 11665, 11665, 11665, 11665, 11665,
	11665, 12868, 14071, 15273, 16476, 17679, 17740, 17801, 17863, 17924,
	17985, 17445, 16904, 16364, 15823, 15283, 15198, 15113, 15027, 14942,
	14857, 15667, 16478, 17288, 18099, 18909, 19213, 19517, 19822, 20126,
	20430, 16344, 12259, 8173, 4088, 4088, 4088, 4088, 4088, 4088,
	4088, 4088,
}

// thrInter and thrInter2 bound the per-coefficient and per-8x8 zero
// decisions of inter residuals.
var thrInter = [52]uint16{
	31878, 31878, 31878, 31878, 31878, 31878, 31878, 31878, 31878, 31878,
	31878, 33578, 35278, 36978, 38678, 40378, 41471, 42563, 43656, 44748,
	45841, 46432, 47024, 47615, 48207, 48798, 49354, 49911, 50467, 51024,
	51580, 51580, 51580, 51580, 51580, 51580, 52222, 52864, 53506, 54148,
	54790, 45955, 37120, 28286, 19451, 10616, 9326, 8036, 6745, 5455,
	4165, 4165,
}

var thrInter2 = [52]uint16{
	45352, 45352, 45352, 45352, 45352, 45352, 45352, 45352, 45352, 45352,
	45352, 41100, 36848, 32597, 28345, 24093, 25904, 27715, 29525, 31336,
	33147, 33429, 33711, 33994, 34276, 34558, 32902, 31246, 29590, 27934,
	26278, 26989, 27700, 28412, 29123, 29834, 29038, 28242, 27445, 26649,
	25853, 23440, 21028, 18615, 16203, 13790, 11137, 8484, 5832, 3179,
	526, 526,
}

// skipThrInter is the largest 8x8 SAD accepted for a skipped macroblock.
var skipThrInter = [52]uint16{
	45, 45, 45, 45, 45, 45, 45, 45, 45, 45,
	45, 45, 45, 44, 44, 44, 40, 37, 33, 30,
	26, 32, 38, 45, 51, 57, 58, 58, 59, 59,
	60, 66, 73, 79, 86, 92, 95, 98, 100, 103,
	106, 200, 300, 400, 500, 600, 700, 800, 900, 1000,
	1377, 1377,
}

// Lagrange multipliers in Q4.
var lambdaQ4 = [52]uint16{
	14, 14, 14, 14, 14, 14, 14, 14, 14, 14,
	14, 13, 11, 10, 8, 7, 11, 15, 20, 24,
	28, 30, 31, 33, 34, 36, 48, 60, 71, 83,
	95, 95, 95, 96, 96, 96, 113, 130, 147, 164,
	181, 401, 620, 840, 1059, 1279, 1262, 1246, 1229, 1213,
	1196, 1196,
}

var lambdaMVQ4 = [52]uint16{
	13, 13, 13, 13, 13, 13, 13, 13, 13, 13,
	13, 14, 15, 15, 16, 17, 18, 20, 21, 23,
	24, 28, 32, 37, 41, 45, 53, 62, 70, 79,
	87, 105, 123, 140, 158, 176, 195, 214, 234, 253,
	272, 406, 541, 675, 810, 944, 895, 845, 796, 746,
	697, 697,
}

// skipThrI4x4 is the largest intra 4x4 SAD coded without residual.
var skipThrI4x4 = [52]uint16{
	0, 1, 2, 3, 4, 5, 6, 7, 8, 9,
	7, 7, 7, 7, 7, 7, 7, 7, 7, 7,
	24, 24, 24, 24, 24, 24, 24, 24, 24, 24,
	44, 44, 44, 44, 44, 44, 44, 44, 44, 44,
	68, 68, 68, 68, 68, 68, 68, 68, 68, 68,
	100, 100,
}

var lambdaI4Q4 = [52]uint16{
	27, 27, 27, 27, 27, 27, 27, 27, 27, 27,
	27, 31, 34, 38, 41, 45, 76, 106, 137, 167,
	198, 220, 243, 265, 288, 310, 347, 384, 421, 458,
	495, 584, 673, 763, 852, 941, 1053, 1165, 1276, 1388,
	1500, 1205, 910, 614, 319, 5000, 1448, 2872, 4296, 5720,
	7144, 7144,
}

var lambdaI16Q4 = [52]uint16{
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 3, 7, 10, 14,
	17, 14, 10, 7, 3, 50, 20, 39, 59, 78,
	98, 94, 89, 85, 80, 76, 118, 161, 203, 246,
	288, 349, 410, 470, 531, 592, 575, 558, 540, 523,
	506, 506,
}

// deadzoneIntra is the quantizer rounding offset for intra blocks.
var deadzoneIntra = [52]uint16{
	3419, 3419, 3419, 3419, 3419, 3419, 3419, 3419, 3419, 3419,
	30550, 8845, 14271, 19698, 25124, 30550, 29556, 28562, 27569, 26575,
	25581, 25284, 24988, 24691, 24395, 24098, 24116, 24134, 24153, 24171,
	24189, 24010, 23832, 23653, 23475, 23296, 23569, 23842, 24115, 24388,
	24661, 19729, 14797, 9865, 4933, 24661, 3499, 6997, 10495, 13993,
	17491, 17491,
}

// chromaQP maps luma QP to chroma QP.
var chromaQP = [52]uint8{
	0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12,
	13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24, 25,
	26, 27, 28, 29, 29, 30, 31, 32, 32, 33, 34, 34, 35,
	35, 36, 36, 37, 37, 37, 38, 38, 38, 39, 39, 39, 39,
}

// deblockTable holds {alpha, tc0 for bS 1..3, beta} for QP 10 and up.
var deblockTable = [42][5]uint8{
	{0, 0, 0, 0, 0},
	{0, 0, 0, 0, 0},
	{0, 0, 0, 0, 0},
	{0, 0, 0, 0, 0},
	{0, 0, 0, 0, 0},
	{0, 0, 0, 0, 0},
	{4, 0, 0, 0, 2},
	{4, 0, 0, 1, 2},
	{5, 0, 0, 1, 2},
	{6, 0, 0, 1, 3},
	{7, 0, 0, 1, 3},
	{8, 0, 1, 1, 3},
	{9, 0, 1, 1, 3},
	{10, 1, 1, 1, 4},
	{12, 1, 1, 1, 4},
	{13, 1, 1, 1, 4},
	{15, 1, 1, 1, 6},
	{17, 1, 1, 2, 6},
	{20, 1, 1, 2, 7},
	{22, 1, 1, 2, 7},
	{25, 1, 1, 2, 8},
	{28, 1, 2, 3, 8},
	{32, 1, 2, 3, 9},
	{36, 2, 2, 3, 9},
	{40, 2, 2, 4, 10},
	{45, 2, 3, 4, 10},
	{50, 2, 3, 4, 11},
	{56, 3, 3, 5, 11},
	{63, 3, 4, 6, 12},
	{71, 3, 4, 6, 12},
	{80, 4, 5, 7, 13},
	{90, 4, 5, 8, 13},
	{101, 4, 6, 9, 14},
	{113, 5, 7, 10, 14},
	{127, 6, 8, 11, 15},
	{144, 6, 8, 13, 15},
	{162, 7, 10, 14, 16},
	{182, 8, 11, 16, 16},
	{203, 9, 12, 18, 17},
	{226, 10, 13, 20, 17},
	{255, 11, 15, 23, 18},
	{255, 13, 17, 25, 18},
}
