package service

import "time"

// timeNow 测试时可替换的时钟
var timeNow = time.Now
